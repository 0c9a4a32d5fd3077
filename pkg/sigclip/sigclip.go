// Package sigclip computes summary statistics with iterative sigma
// clipping: outliers beyond a multiple of the standard deviation around
// the median are discarded and the moments recomputed, until the set
// stabilizes or the iteration cap is hit.
package sigclip

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats returns the clipped mean, median and (population) standard
// deviation of values. NaN entries are ignored. maxiters <= 0 means a
// single pass with no clipping.
func Stats(values []float64, sigma float64, maxiters int) (mean, median, stddev float64) {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		nan := math.NaN()
		return nan, nan, nan
	}

	sort.Float64s(kept)

	for iter := 0; iter < maxiters; iter++ {
		med := stat.Quantile(0.5, stat.Empirical, kept, nil)
		sd := stat.PopStdDev(kept, nil)
		if sd == 0 {
			break
		}

		lo, hi := med-sigma*sd, med+sigma*sd
		next := kept[:0]
		for _, v := range kept {
			if v >= lo && v <= hi {
				next = append(next, v)
			}
		}
		if len(next) == len(kept) || len(next) == 0 {
			break
		}
		kept = next
	}

	mean = stat.Mean(kept, nil)
	median = stat.Quantile(0.5, stat.Empirical, kept, nil)
	stddev = stat.PopStdDev(kept, nil)
	return mean, median, stddev
}
