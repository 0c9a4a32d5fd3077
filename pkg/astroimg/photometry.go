package astroimg

import (
	"fmt"

	"github.com/astrokit/astroimg/pkg/photom"
	"github.com/astrokit/astroimg/pkg/render"
)

// CoordMode says how to interpret a photometry coordinate pair.
type CoordMode int

const (
	CoordPixel CoordMode = iota // {x, y} in 0-based pixels
	CoordSky                    // {RA, Dec} in degrees
)

// Photometry sums the flux inside a circular sky aperture of radius r
// arcsec centered on coord, and converts it to an instrumental
// magnitude: mag = -2.5*log10(flux) + zeropoint. A non-positive flux
// sum comes back as a NaN magnitude, not an error.
func (im *Image) Photometry(coord [2]float64, r float64, mode CoordMode, zeropoint float64) (float64, photom.SkyCircularAperture, error) {
	var sky photom.SkyCircularAperture

	switch mode {
	case CoordPixel:
		ra, dec, err := im.WCS.PixelToWorld(coord[0], coord[1])
		if err != nil {
			return 0, sky, fmt.Errorf("photometry position: %v", err)
		}
		sky = photom.SkyCircularAperture{RA: ra, Dec: dec, R: r}
	case CoordSky:
		sky = photom.SkyCircularAperture{RA: coord[0], Dec: coord[1], R: r}
	default:
		return 0, sky, fmt.Errorf("photometry: unknown coordinate mode %d", mode)
	}

	ap, err := sky.ToPixel(im.WCS)
	if err != nil {
		return 0, sky, err
	}

	flux := ap.Sum(im.Data)
	return photom.Mag(flux, zeropoint), sky, nil
}

// PhotometryPlot is Photometry plus a preview figure with the aperture
// outline and a magnitude/radius annotation drawn on it.
func (im *Image) PhotometryPlot(coord [2]float64, r float64, mode CoordMode, zeropoint float64, opts render.Options) (float64, photom.SkyCircularAperture, *render.Figure, error) {
	mag, sky, err := im.Photometry(coord, r, mode, zeropoint)
	if err != nil {
		return 0, sky, nil, err
	}

	fig, err := im.Preview(opts)
	if err != nil {
		return 0, sky, nil, err
	}
	ap, err := sky.ToPixel(im.WCS)
	if err != nil {
		return 0, sky, nil, err
	}
	fig.DrawAperture(ap.X, ap.Y, ap.R)
	fig.Annotate(fmt.Sprintf("mag=%.2f\nr=%.2f\"", mag, r))
	return mag, sky, fig, nil
}
