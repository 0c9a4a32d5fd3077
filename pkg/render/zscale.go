package render

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ZScale picks display limits the way the IRAF zscale algorithm does:
// sort a sample of the finite pixels, fit a line to the sorted sample
// with iterative sigma rejection, then expand the slope of the fit by
// the contrast to place the limits around the sample median. Degenerate
// inputs fall back to the plain min/max.
func ZScale(values []float64) (lo, hi float64) {
	const (
		maxSample  = 2000
		contrast   = 0.25
		krej       = 2.5
		maxRejIter = 5
	)

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 1
	}

	// Evenly strided sample
	stride := len(finite)/maxSample + 1
	sample := make([]float64, 0, maxSample)
	for i := 0; i < len(finite); i += stride {
		sample = append(sample, finite[i])
	}
	sort.Float64s(sample)

	n := len(sample)
	zmin, zmax := sample[0], sample[n-1]
	zmed := sample[n/2]
	if n < 5 || zmin == zmax {
		return zmin, zmax
	}

	// Iteratively fit sample[i] = alpha + beta*i, rejecting outliers
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range sample {
		xs[i] = float64(i)
		ys[i] = sample[i]
	}
	var beta float64
	for iter := 0; iter < maxRejIter; iter++ {
		var alpha float64
		alpha, beta = stat.LinearRegression(xs, ys, nil, false)

		resid := make([]float64, len(xs))
		for i := range xs {
			resid[i] = ys[i] - (alpha + beta*xs[i])
		}
		sd := stat.PopStdDev(resid, nil)
		if sd == 0 {
			break
		}

		kx, ky := xs[:0], ys[:0]
		for i := range xs {
			if math.Abs(resid[i]) < krej*sd {
				kx = append(kx, xs[i])
				ky = append(ky, ys[i])
			}
		}
		if len(kx) == len(xs) || len(kx) < n/2 {
			break
		}
		xs, ys = kx, ky
	}

	if len(xs) < n/2 {
		return zmin, zmax
	}

	slope := beta / contrast
	mid := float64(n / 2)
	lo = zmed - mid*slope
	hi = zmed + (float64(n)-mid)*slope
	if lo < zmin {
		lo = zmin
	}
	if hi > zmax {
		hi = zmax
	}
	return lo, hi
}
