// Package render turns a pixel grid into a preview figure: zscale
// contrast stretch, palette lookup, sky-projected axis labels and a
// colorbar. Figures are drawn offscreen and saved (or handed back as an
// image.Image) rather than displayed.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/fogleman/gg"
	"golang.org/x/image/tiff"

	"github.com/astrokit/astroimg/pkg/fgrid"
	"github.com/astrokit/astroimg/pkg/wcs"
)

type Options struct {
	Cmap  string  // palette name ("" -> gray)
	Gamma float64 // palette gamma (0 or 1 -> identity)
	Scale int     // plot-area width on the canvas, px (0 -> 600)
}

// Canvas margins around the plot area, px.
const (
	marginLeft   = 70
	marginRight  = 95
	marginTop    = 25
	marginBottom = 55
)

type Figure struct {
	dc     *gg.Context
	plot   image.Rectangle
	gw, gh int
	w      *wcs.WCS
	lo, hi float64
}

// New renders g into a fresh figure. The image is drawn with the origin
// at the lower left, matching FITS pixel order.
func New(g *fgrid.Grid, w *wcs.WCS, opts Options) (*Figure, error) {
	if opts.Cmap == "" {
		opts.Cmap = "gray"
	}
	if opts.Gamma == 0 {
		opts.Gamma = 1
	}
	if opts.Scale <= 0 {
		opts.Scale = 600
	}

	cmap, err := NewColormap(opts.Cmap)
	if err != nil {
		return nil, err
	}
	cmap = cmap.Gamma(opts.Gamma)

	lo, hi := ZScale(g.Values())
	span := hi - lo
	if span == 0 {
		span = 1
	}

	raw := image.NewRGBA(image.Rect(0, 0, g.Dx(), g.Dy()))
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			v := g.Get(x, y)
			if math.IsNaN(v) {
				raw.Set(x, g.Dy()-1-y, color.White)
				continue
			}
			raw.Set(x, g.Dy()-1-y, cmap.At((v-lo)/span))
		}
	}

	pw := opts.Scale
	ph := pw * g.Dy() / g.Dx()
	if ph < 1 {
		ph = 1
	}
	scaled := transform.Resize(raw, pw, ph, transform.NearestNeighbor)

	dc := gg.NewContext(marginLeft+pw+marginRight, marginTop+ph+marginBottom)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(scaled, marginLeft, marginTop)

	fig := &Figure{
		dc:   dc,
		plot: image.Rect(marginLeft, marginTop, marginLeft+pw, marginTop+ph),
		gw:   g.Dx(),
		gh:   g.Dy(),
		w:    w,
		lo:   lo,
		hi:   hi,
	}
	fig.drawFrame()
	fig.drawColorbar(cmap)
	return fig, nil
}

func (f *Figure) Context() *gg.Context     { return f.dc }
func (f *Figure) Image() image.Image       { return f.dc.Image() }
func (f *Figure) Limits() (lo, hi float64) { return f.lo, f.hi }

// DataToCanvas maps a data-grid pixel position to canvas coordinates.
func (f *Figure) DataToCanvas(x, y float64) (float64, float64) {
	cx := float64(f.plot.Min.X) + (x+0.5)/float64(f.gw)*float64(f.plot.Dx())
	cy := float64(f.plot.Max.Y) - (y+0.5)/float64(f.gh)*float64(f.plot.Dy())
	return cx, cy
}

// DrawAperture strokes a circular aperture outline, positioned in
// data-grid pixel coordinates.
func (f *Figure) DrawAperture(x, y, r float64) {
	cx, cy := f.DataToCanvas(x, y)
	cr := r / float64(f.gw) * float64(f.plot.Dx())
	f.dc.SetRGB(0.85, 0.1, 0.1)
	f.dc.SetLineWidth(2)
	f.dc.DrawCircle(cx, cy, cr)
	f.dc.Stroke()
}

// DrawBeam strokes a beam ellipse near the lower-left corner of the
// plot. The axes are full widths in data-grid pixels (minor along x,
// major along y); pa is the position angle in degrees east of north.
func (f *Figure) DrawBeam(minorPx, majorPx, pa float64) {
	cx, cy := f.DataToCanvas(2, 2)
	kx := float64(f.plot.Dx()) / float64(f.gw)
	ky := float64(f.plot.Dy()) / float64(f.gh)
	f.dc.Push()
	// East of north runs counterclockwise on the sky but the canvas y
	// axis points down, so the rotation comes out as +pa.
	f.dc.RotateAbout(gg.Radians(pa), cx, cy)
	f.dc.SetRGB(1, 1, 1)
	f.dc.SetLineWidth(3)
	f.dc.DrawEllipse(cx, cy, minorPx/2*kx, majorPx/2*ky)
	f.dc.Stroke()
	f.dc.Pop()
}

// Annotate writes text inside the top-left corner of the plot area, one
// line per newline in s.
func (f *Figure) Annotate(s string) {
	f.dc.SetRGB(0.85, 0.1, 0.1)
	x := float64(f.plot.Min.X) + 0.05*float64(f.plot.Dx())
	y := float64(f.plot.Min.Y) + 0.08*float64(f.plot.Dy())
	for _, line := range strings.Split(s, "\n") {
		f.dc.DrawString(line, x, y)
		y += 14
	}
}

func (f *Figure) SavePNG(filename string) error {
	return f.dc.SavePNG(filename)
}

func (f *Figure) SaveTIFF(filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return tiff.Encode(writer, f.dc.Image(), &tiff.Options{Compression: tiff.Deflate})
}

// Save picks the encoder from the filename extension (.png or .tif).
func (f *Figure) Save(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		return f.SaveTIFF(filename)
	default:
		return f.SavePNG(filename)
	}
}

func (f *Figure) drawFrame() {
	dc := f.dc
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(f.plot.Min.X), float64(f.plot.Min.Y), float64(f.plot.Dx()), float64(f.plot.Dy()))
	dc.Stroke()

	const nticks = 5
	for k := 0; k < nticks; k++ {
		frac := float64(k) / (nticks - 1)

		// x axis: ticks along the bottom, labelled with RA
		dx := frac * float64(f.gw-1)
		cx, _ := f.DataToCanvas(dx, 0)
		dc.DrawLine(cx, float64(f.plot.Max.Y), cx, float64(f.plot.Max.Y)+5)
		dc.Stroke()
		dc.DrawStringAnchored(f.tickLabel(dx, 0, 0), cx, float64(f.plot.Max.Y)+8, 0.5, 1)

		// y axis: ticks along the left, labelled with Dec
		dy := frac * float64(f.gh-1)
		_, cy := f.DataToCanvas(0, dy)
		dc.DrawLine(float64(f.plot.Min.X)-5, cy, float64(f.plot.Min.X), cy)
		dc.Stroke()
		dc.DrawStringAnchored(f.tickLabel(0, dy, 1), float64(f.plot.Min.X)-8, cy, 1, 0.4)
	}

	xname, yname := "x [px]", "y [px]"
	if f.w != nil {
		xname, yname = "RA", "Dec"
	}
	dc.DrawStringAnchored(xname, float64(f.plot.Min.X)+float64(f.plot.Dx())/2, float64(f.plot.Max.Y)+32, 0.5, 1)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 16, float64(f.plot.Min.Y)+float64(f.plot.Dy())/2)
	dc.DrawStringAnchored(yname, 16, float64(f.plot.Min.Y)+float64(f.plot.Dy())/2, 0.5, 0.5)
	dc.Pop()
}

// tickLabel formats the world coordinate of a data pixel along the
// given axis (0 = lon, 1 = lat), falling back to the pixel index when
// there is no usable transform.
func (f *Figure) tickLabel(dx, dy float64, axis int) string {
	if f.w != nil {
		if lon, lat, err := f.w.PixelToWorld(dx, dy); err == nil {
			if axis == 0 {
				return fmt.Sprintf("%.4f", lon)
			}
			return fmt.Sprintf("%.4f", lat)
		}
	}
	if axis == 0 {
		return fmt.Sprintf("%.0f", dx)
	}
	return fmt.Sprintf("%.0f", dy)
}

func (f *Figure) drawColorbar(cmap Colormap) {
	dc := f.dc
	barX := f.plot.Max.X + 25
	barW := 16
	for row := 0; row < f.plot.Dy(); row++ {
		t := 1 - float64(row)/float64(f.plot.Dy()-1)
		dc.SetColor(cmap.At(t))
		dc.DrawRectangle(float64(barX), float64(f.plot.Min.Y+row), float64(barW), 1)
		dc.Fill()
	}
	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(float64(barX), float64(f.plot.Min.Y), float64(barW), float64(f.plot.Dy()))
	dc.Stroke()
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", f.hi), float64(barX+barW)+4, float64(f.plot.Min.Y), 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", f.lo), float64(barX+barW)+4, float64(f.plot.Max.Y), 0, 0.5)
}
