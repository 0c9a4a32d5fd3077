// astroimg is a quick-look tool over a single FITS image: print robust
// statistics, mask blank borders, cut out a region, measure a circular
// aperture, render a preview, and export the result.
//
//	astroimg [flags] image.fits
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/astrokit/astroimg/pkg/astroimg"
)

var (
	fVerbosity int
	fExt       int
	fConfig    string

	fStats     bool
	fMaskBlank bool

	fCutout   string
	fCutoutPx string

	fPhot      string
	fPhotMode  string
	fZeropoint float64

	fPreview string
	fCmap    string
	fGamma   float64
	fBeam    bool

	fSave string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fExt, "ext", 0, "FITS extension to read")
	flag.StringVar(&fConfig, "config", "", "YAML config file with defaults")

	flag.BoolVar(&fStats, "stats", false, "print sigma-clipped mean/median/stddev")
	flag.BoolVar(&fMaskBlank, "maskblank", false, "mask dominant fill values before anything else")

	flag.StringVar(&fCutout, "cutout", "", "sky cutout: 'ra,dec,width,height' (deg, deg, arcsec, arcsec)")
	flag.StringVar(&fCutoutPx, "cutoutpx", "", "pixel cutout: 'x,y,width,height' (px)")

	flag.StringVar(&fPhot, "phot", "", "aperture photometry: 'c1,c2,r' (r in arcsec)")
	flag.StringVar(&fPhotMode, "mode", "sky", "how to read the photometry coordinate: sky|pixel")
	flag.Float64Var(&fZeropoint, "zp", 0, "photometric zeropoint, overrides config")

	flag.StringVar(&fPreview, "preview", "", "write a preview rendering here (.png or .tif)")
	flag.StringVar(&fCmap, "cmap", "", "preview palette, overrides config")
	flag.Float64Var(&fGamma, "gamma", 0, "preview palette gamma, overrides config")
	flag.BoolVar(&fBeam, "beam", false, "overlay the BMAJ/BMIN/BPA beam on the preview")

	flag.StringVar(&fSave, "save", "", "write the (possibly cut out / masked) image as FITS here")
	flag.Parse()
}

func main() {
	if flag.NArg() != 1 {
		log.Fatalf("usage: astroimg [flags] image.fits")
	}

	cfg := astroimg.NewConfig()
	if fConfig != "" {
		var err error
		if cfg, err = astroimg.LoadConfig(fConfig); err != nil {
			log.Fatal(err)
		}
	}
	cfg.Verbosity = fVerbosity
	if fCmap != "" {
		cfg.Cmap = fCmap
	}
	if fGamma != 0 {
		cfg.Gamma = fGamma
	}
	if fZeropoint != 0 {
		cfg.Zeropoint = fZeropoint
	}
	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	img, err := astroimg.Open(flag.Arg(0), fExt)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Verbosity > 0 {
		log.Printf("loaded %s: %s, pixel scale %.3f\" x %.3f\"",
			flag.Arg(0), img, img.PixelScale[0], img.PixelScale[1])
	}

	if fMaskBlank {
		img.MaskBlank(cfg.MaskThreshold)
	}

	if fCutout != "" {
		vals := parseFloats(fCutout, 4, "-cutout")
		if img, err = img.Cutout([2]float64{vals[0], vals[1]}, [2]float64{vals[2], vals[3]}); err != nil {
			log.Fatal(err)
		}
	} else if fCutoutPx != "" {
		vals := parseFloats(fCutoutPx, 4, "-cutoutpx")
		if img, err = img.CutoutPixel([2]float64{vals[0], vals[1]}, [2]float64{vals[2], vals[3]}); err != nil {
			log.Fatal(err)
		}
	}

	if fStats {
		mean, median, stddev := img.SigmaClippedStats(cfg.ClipSigma, cfg.ClipMaxIters)
		fmt.Printf("mean=%g median=%g stddev=%g\n", mean, median, stddev)
	}

	var photFig bool
	if fPhot != "" {
		vals := parseFloats(fPhot, 3, "-phot")
		mode := astroimg.CoordSky
		if fPhotMode == "pixel" {
			mode = astroimg.CoordPixel
		}
		coord := [2]float64{vals[0], vals[1]}

		if fPreview != "" {
			mag, _, fig, err := img.PhotometryPlot(coord, vals[2], mode, cfg.Zeropoint, cfg.RenderOptions())
			if err != nil {
				log.Fatal(err)
			}
			if fBeam {
				if err := img.DrawBeam(fig); err != nil {
					log.Fatal(err)
				}
			}
			if err := fig.Save(fPreview); err != nil {
				log.Fatal(err)
			}
			photFig = true
			fmt.Printf("mag=%.4f (r=%.2f\", zp=%.2f)\n", mag, vals[2], cfg.Zeropoint)
			fmt.Printf("magerr=%.4f\n", img.MagErr(mag, cfg.Zeropoint, apertureAreaPx(img, vals[2])))
		} else {
			mag, _, err := img.Photometry(coord, vals[2], mode, cfg.Zeropoint)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("mag=%.4f (r=%.2f\", zp=%.2f)\n", mag, vals[2], cfg.Zeropoint)
			fmt.Printf("magerr=%.4f\n", img.MagErr(mag, cfg.Zeropoint, apertureAreaPx(img, vals[2])))
		}
	}

	if fPreview != "" && !photFig {
		fig, err := img.Preview(cfg.RenderOptions())
		if err != nil {
			log.Fatal(err)
		}
		if fBeam {
			if err := img.DrawBeam(fig); err != nil {
				log.Fatal(err)
			}
		}
		if err := fig.Save(fPreview); err != nil {
			log.Fatal(err)
		}
	}

	if fSave != "" {
		if err := img.Save(fSave); err != nil {
			log.Fatal(err)
		}
	}
}

// apertureAreaPx converts an angular aperture radius to its pixel area.
func apertureAreaPx(img *astroimg.Image, rArcsec float64) float64 {
	scale := (img.PixelScale[0] + img.PixelScale[1]) / 2
	rPix := rArcsec / scale
	return math.Pi * rPix * rPix
}

func parseFloats(s string, n int, what string) []float64 {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		log.Fatalf("%s wants %d comma-separated values, got %q", what, n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Fatalf("%s value %q: %v", what, p, err)
		}
		out[i] = v
	}
	return out
}
