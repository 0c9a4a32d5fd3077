package astroimg

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MaskBlank hunts for border/blank fill values: any pixel value whose
// occurrence count exceeds mean + 5*stddev of the count distribution,
// plus the caller's threshold, is treated as fill and replaced by NaN
// in place. Returns the receiver so calls chain. If no value stands
// out, nothing changes.
func (im *Image) MaskBlank(threshold float64) *Image {
	counts := im.Data.UniqueCounts()
	if len(counts) == 0 {
		return im
	}

	dist := make([]float64, 0, len(counts))
	for _, c := range counts {
		dist = append(dist, float64(c))
	}
	critical := stat.Mean(dist, nil) + 5*stat.PopStdDev(dist, nil) + threshold
	log.Printf("critical counts = %g", critical)

	flagged := make([]float64, 0, 4)
	for v, c := range counts {
		if float64(c) > critical {
			flagged = append(flagged, v)
		}
	}
	sort.Float64s(flagged)

	for _, v := range flagged {
		log.Printf("%d pixels' value is %g", counts[v], v)
		im.Data.Replace(v, math.NaN())
	}
	return im
}
