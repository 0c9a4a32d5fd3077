package astroimg

import (
	"math"

	"github.com/astrokit/astroimg/pkg/sigclip"
)

// Default clipping used by MagErr, matching SigmaClippedStats' usual
// call site.
const (
	defaultClipSigma    = 2.0
	defaultClipMaxIters = 5
)

// SigmaClippedStats returns the sigma-clipped mean, median and standard
// deviation of the pixel values, ignoring masked (NaN) pixels.
func (im *Image) SigmaClippedStats(sigma float64, maxiters int) (mean, median, stddev float64) {
	return sigclip.Stats(im.Data.Values(), sigma, maxiters)
}

// MagErr propagates the clipped background noise into a magnitude
// uncertainty for an aperture of the given area (pixels):
//
//	fluxErr = stddev * sqrt(area)
//	magErr  = 2.5/ln(10) * fluxErr / flux, flux = 10^((mag-zp)/-2.5)
func (im *Image) MagErr(mag, zeropoint, area float64) float64 {
	_, _, stddev := im.SigmaClippedStats(defaultClipSigma, defaultClipMaxIters)
	fluxErr := stddev * math.Sqrt(area)
	flux := math.Pow(10, (mag-zeropoint)/-2.5)
	return 2.5 / math.Ln10 * fluxErr / flux
}
