package wcs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Gnomonic (TAN) projection, per Calabretta & Greisen (2002). The
// intermediate world coordinates (xi, eta) live in the projection
// plane tangent at the reference point (CRVAL), in degrees.

// PixelToWorld maps a 0-based pixel position to world coordinates
// (degrees). For celestial TAN axes this deprojects through the tangent
// plane; otherwise the transform is linear.
func (w *WCS) PixelToWorld(x, y float64) (float64, float64, error) {
	if w.naxis < 2 {
		return 0, 0, fmt.Errorf("wcs: %d axes, need 2", w.naxis)
	}

	// 0-based pixel -> offset from the reference pixel (CRPIX is 1-based)
	dx := x + 1 - w.crpix[0]
	dy := y + 1 - w.crpix[1]
	xi := w.cd[0][0]*dx + w.cd[0][1]*dy
	eta := w.cd[1][0]*dx + w.cd[1][1]*dy

	if !w.celestial() {
		return w.crval[0] + xi, w.crval[1] + eta, nil
	}

	a0 := w.crval[0] * deg2rad
	d0 := w.crval[1] * deg2rad
	xiR := xi * deg2rad
	etaR := eta * deg2rad

	r := math.Hypot(xiR, etaR)
	if r == 0 {
		return w.crval[0], w.crval[1], nil
	}
	c := math.Atan(r)
	sinc, cosc := math.Sin(c), math.Cos(c)

	dec := math.Asin(cosc*math.Sin(d0) + etaR*sinc*math.Cos(d0)/r)
	ra := a0 + math.Atan2(xiR*sinc, r*math.Cos(d0)*cosc-etaR*math.Sin(d0)*sinc)

	raDeg := math.Mod(ra*rad2deg+360, 360)
	return raDeg, dec * rad2deg, nil
}

// WorldToPixel maps world coordinates (degrees) to a 0-based pixel
// position.
func (w *WCS) WorldToPixel(lon, lat float64) (float64, float64, error) {
	if w.naxis < 2 {
		return 0, 0, fmt.Errorf("wcs: %d axes, need 2", w.naxis)
	}

	var xi, eta float64
	if w.celestial() {
		a0 := w.crval[0] * deg2rad
		d0 := w.crval[1] * deg2rad
		a := lon * deg2rad
		d := lat * deg2rad

		cosc := math.Sin(d0)*math.Sin(d) + math.Cos(d0)*math.Cos(d)*math.Cos(a-a0)
		if cosc <= 0 {
			return 0, 0, fmt.Errorf("wcs: (%g, %g) is beyond the tangent plane", lon, lat)
		}
		xi = math.Cos(d) * math.Sin(a-a0) / cosc * rad2deg
		eta = (math.Cos(d0)*math.Sin(d) - math.Sin(d0)*math.Cos(d)*math.Cos(a-a0)) / cosc * rad2deg
	} else {
		xi = lon - w.crval[0]
		eta = lat - w.crval[1]
	}

	cd := mat.NewDense(2, 2, []float64{
		w.cd[0][0], w.cd[0][1],
		w.cd[1][0], w.cd[1][1],
	})
	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		return 0, 0, fmt.Errorf("wcs: singular CD matrix: %v", err)
	}

	dx := inv.At(0, 0)*xi + inv.At(0, 1)*eta
	dy := inv.At(1, 0)*xi + inv.At(1, 1)*eta

	return dx + w.crpix[0] - 1, dy + w.crpix[1] - 1, nil
}

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)
