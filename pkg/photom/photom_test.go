package photom

import (
	"math"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit/astroimg/pkg/fgrid"
	"github.com/astrokit/astroimg/pkg/wcs"
)

func flatGrid(w, h int, v float64) *fgrid.Grid {
	g := fgrid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, v)
		}
	}
	return g
}

func TestSum_FlatField(t *testing.T) {
	g := flatGrid(50, 50, 2.0)

	tests := []struct {
		name string
		ap   CircularAperture
	}{
		{"centered", CircularAperture{X: 24.5, Y: 24.5, R: 5}},
		{"off center", CircularAperture{X: 30.2, Y: 18.7, R: 8}},
		{"small", CircularAperture{X: 25, Y: 25, R: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := 2.0 * tt.ap.Area()
			got := tt.ap.Sum(g)
			assert.InEpsilon(t, want, got, 0.01, "flat flux should equal value * circle area")
		})
	}
}

func TestSum_NaNPropagates(t *testing.T) {
	g := flatGrid(20, 20, 1.0)
	g.Set(10, 10, math.NaN())

	ap := CircularAperture{X: 10, Y: 10, R: 3}
	assert.True(t, math.IsNaN(ap.Sum(g)))

	// NaN outside the aperture is ignored
	ap = CircularAperture{X: 3, Y: 3, R: 2}
	assert.False(t, math.IsNaN(ap.Sum(g)))
}

func TestSum_ApertureOffEdge(t *testing.T) {
	g := flatGrid(20, 20, 1.0)
	ap := CircularAperture{X: 0, Y: 0, R: 3}

	got := ap.Sum(g)
	assert.Less(t, got, ap.Area(), "clipped aperture sums less than full circle")
	assert.Greater(t, got, ap.Area()/4, "more than a quadrant survives at the corner")
}

func TestMag(t *testing.T) {
	assert.InDelta(t, 20.0, Mag(100, 25), 1e-12)
	assert.InDelta(t, 25.0, Mag(1, 25), 1e-12)
	assert.True(t, math.IsNaN(Mag(-5, 25)), "negative flux has no magnitude")
	assert.True(t, math.IsInf(Mag(0, 25), 1), "zero flux diverges")
}

func TestSkyToPixel(t *testing.T) {
	img := fitsio.NewImage(-64, []int{100, 100})
	hdr := img.Header()
	require.NoError(t, hdr.Append(
		fitsio.Card{Name: "CTYPE1", Value: "RA---TAN"},
		fitsio.Card{Name: "CTYPE2", Value: "DEC--TAN"},
		fitsio.Card{Name: "CRPIX1", Value: 50.0},
		fitsio.Card{Name: "CRPIX2", Value: 50.0},
		fitsio.Card{Name: "CRVAL1", Value: 150.0},
		fitsio.Card{Name: "CRVAL2", Value: 30.0},
		fitsio.Card{Name: "CD1_1", Value: -1.0 / 3600},
		fitsio.Card{Name: "CD2_2", Value: 1.0 / 3600},
	))
	w, err := wcs.NewFromHeader(hdr)
	require.NoError(t, err)

	sky := SkyCircularAperture{RA: 150.0, Dec: 30.0, R: 4}
	ap, err := sky.ToPixel(w)
	require.NoError(t, err)

	assert.InDelta(t, 49.0, ap.X, 1e-8)
	assert.InDelta(t, 49.0, ap.Y, 1e-8)
	assert.InDelta(t, 4.0, ap.R, 1e-8, "4 arcsec at 1 arcsec/px")
}
