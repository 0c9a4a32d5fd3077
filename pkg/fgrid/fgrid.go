package fgrid

import (
	"fmt"
	"math"
	"sort"
)

// A Grid is a 2D grid of float64 pixel values, stored row-major with
// x varying fastest (FITS axis order). Missing pixels are NaN.
type Grid struct {
	stride int
	values []float64
}

func New(w, h int) *Grid {
	return &Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// FromValues wraps an existing row-major slice. The slice is not copied.
func FromValues(w, h int, values []float64) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("grid dims %dx%d out of range", w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("grid %dx%d needs %d values, have %d", w, h, w*h, len(values))
	}
	return &Grid{stride: w, values: values}, nil
}

func (g *Grid) Set(x, y int, v float64) { g.values[g.stride*y+x] = v }
func (g *Grid) Get(x, y int) float64    { return g.values[g.stride*y+x] }
func (g *Grid) Dx() int                 { return g.stride }
func (g *Grid) Dy() int                 { return len(g.values) / g.stride }
func (g *Grid) Values() []float64       { return g.values }

func (g *Grid) Copy() *Grid {
	g2 := &Grid{stride: g.stride, values: make([]float64, len(g.values))}
	copy(g2.values, g.values)
	return g2
}

// SubGridPartial extracts the w x h rectangle whose lower-left corner
// sits at (x0, y0) in g. The rectangle may hang over any edge of g;
// pixels outside g are filled with NaN.
func (g *Grid) SubGridPartial(x0, y0, w, h int) *Grid {
	g2 := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x0+x, y0+y
			if sx < 0 || sy < 0 || sx >= g.Dx() || sy >= g.Dy() {
				g2.Set(x, y, math.NaN())
			} else {
				g2.Set(x, y, g.Get(sx, sy))
			}
		}
	}
	return g2
}

// UniqueCounts tallies how many pixels hold each distinct finite value.
func (g *Grid) UniqueCounts() map[float64]int {
	counts := map[float64]int{}
	for _, v := range g.values {
		if !math.IsNaN(v) {
			counts[v]++
		}
	}
	return counts
}

// Replace overwrites every pixel equal to old with new, returning how
// many pixels changed.
func (g *Grid) Replace(old, new float64) int {
	n := 0
	for i, v := range g.values {
		if v == old {
			g.values[i] = new
			n++
		}
	}
	return n
}

// Finite returns the non-NaN values, in row-major order.
func (g *Grid) Finite() []float64 {
	out := make([]float64, 0, len(g.values))
	for _, v := range g.values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func (g *Grid) MinMax() (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range g.values {
		if math.IsNaN(v) {
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return min, max
}

// FindMinMaxAtPercentile returns the values sitting at the given
// percentiles (0.0 -> 1.0) of the sorted finite pixels.
func (g *Grid) FindMinMaxAtPercentile(minPrct, maxPrct float64) (float64, float64) {
	vals := g.Finite()
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	sort.Float64s(vals)

	iMin := int(minPrct * float64(len(vals)))
	iMax := int(maxPrct * float64(len(vals)))
	if iMin < 0 {
		iMin = 0
	}
	if iMax >= len(vals) {
		iMax = len(vals) - 1
	}
	return vals[iMin], vals[iMax]
}

func (g *Grid) Stats() string {
	min, max := g.MinMax()
	return fmt.Sprintf("grid[%dx%d, vals{%g,%g}]", g.Dx(), g.Dy(), min, max)
}
