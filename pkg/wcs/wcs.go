// Package wcs implements the FITS World Coordinate System keywords:
// parsing CTYPEi/CRPIXi/CRVALi/CDi_j cards from a header, transforming
// between pixel and sky coordinates (gnomonic TAN projection, with a
// linear fallback for non-celestial axes), and serializing back to
// header cards. Pixel coordinates at the API are 0-based; the FITS
// convention of 1-based CRPIX is handled internally.
package wcs

import (
	"fmt"
	"strings"

	"github.com/astrogo/fitsio"
	"gonum.org/v1/gonum/mat"
)

type WCS struct {
	naxis int
	ctype []string
	cunit []string
	crpix []float64 // FITS 1-based
	crval []float64
	cd    [][]float64 // cd[i][j] = CD(i+1)_(j+1), degrees/pixel
	shape []int       // NAXISi extents, FITS axis order (x first)
}

// NewFromHeader builds a WCS from a FITS header. Missing cards take the
// FITS defaults (CRPIX/CRVAL 0, unit CD matrix, unit "deg").
func NewFromHeader(hdr *fitsio.Header) (*WCS, error) {
	n := len(hdr.Axes())
	if c := hdr.Get("WCSAXES"); c != nil {
		if v, ok := intValue(c.Value); ok && v > n {
			n = v
		}
	}
	if n < 1 {
		return nil, fmt.Errorf("wcs: header describes no axes")
	}

	w := &WCS{
		naxis: n,
		ctype: make([]string, n),
		cunit: make([]string, n),
		crpix: make([]float64, n),
		crval: make([]float64, n),
		cd:    identity(n),
		shape: make([]int, n),
	}

	for i := 0; i < n; i++ {
		w.ctype[i] = stringCard(hdr, fmt.Sprintf("CTYPE%d", i+1), "")
		w.cunit[i] = stringCard(hdr, fmt.Sprintf("CUNIT%d", i+1), "deg")
		w.crpix[i] = floatCard(hdr, fmt.Sprintf("CRPIX%d", i+1), 0)
		w.crval[i] = floatCard(hdr, fmt.Sprintf("CRVAL%d", i+1), 0)
		w.shape[i] = 1
		if i < len(hdr.Axes()) {
			w.shape[i] = hdr.Axes()[i]
		}
	}

	if hasCDMatrix(hdr, n) {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				def := 0.0
				if i == j {
					def = 1.0
				}
				w.cd[i][j] = floatCard(hdr, fmt.Sprintf("CD%d_%d", i+1, j+1), def)
			}
		}
	} else {
		// CDELTi (+ optional PCi_j) representation
		for i := 0; i < n; i++ {
			cdelt := floatCard(hdr, fmt.Sprintf("CDELT%d", i+1), 1)
			for j := 0; j < n; j++ {
				def := 0.0
				if i == j {
					def = 1.0
				}
				pc := floatCard(hdr, fmt.Sprintf("PC%d_%d", i+1, j+1), def)
				w.cd[i][j] = cdelt * pc
			}
		}
	}

	return w, nil
}

func (w *WCS) NAxis() int          { return w.naxis }
func (w *WCS) AxisTypes() []string { return append([]string(nil), w.ctype...) }

// ArrayShape returns the axis extents with the slowest-varying axis
// first, i.e. the shape of the data array as stored.
func (w *WCS) ArrayShape() []int {
	out := make([]int, w.naxis)
	for i, v := range w.shape {
		out[w.naxis-1-i] = v
	}
	return out
}

// DropAxis returns a copy of w with FITS axis index ax (0-based)
// removed from every WCS term.
func (w *WCS) DropAxis(ax int) (*WCS, error) {
	if ax < 0 || ax >= w.naxis {
		return nil, fmt.Errorf("wcs: cannot drop axis %d of %d", ax, w.naxis)
	}
	n := w.naxis - 1
	w2 := &WCS{
		naxis: n,
		ctype: dropStr(w.ctype, ax),
		cunit: dropStr(w.cunit, ax),
		crpix: dropF64(w.crpix, ax),
		crval: dropF64(w.crval, ax),
		shape: dropInt(w.shape, ax),
		cd:    make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		w2.cd[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			si, sj := i, j
			if si >= ax {
				si++
			}
			if sj >= ax {
				sj++
			}
			w2.cd[i][j] = w.cd[si][sj]
		}
	}
	return w2, nil
}

// PixelScales returns the projection-plane scale along the two spatial
// axes, in degrees/pixel, computed from the CD matrix column norms.
func (w *WCS) PixelScales() [2]float64 {
	m := mat.NewDense(2, 2, []float64{
		w.cd[0][0], w.cd[0][1],
		w.cd[1][0], w.cd[1][1],
	})
	var out [2]float64
	for j := 0; j < 2; j++ {
		col := mat.NewVecDense(2, []float64{m.At(0, j), m.At(1, j)})
		out[j] = mat.Norm(col, 2)
	}
	return out
}

// Slice returns a copy of w with the reference pixel shifted so that
// pixel (x0, y0) of the parent becomes pixel (0, 0); used when cutting
// out a subimage.
func (w *WCS) Slice(x0, y0 int) *WCS {
	w2 := w.copy()
	w2.crpix[0] -= float64(x0)
	w2.crpix[1] -= float64(y0)
	return w2
}

// SetShape records the axis extents (FITS axis order, x first).
func (w *WCS) SetShape(extents ...int) {
	for i := 0; i < w.naxis && i < len(extents); i++ {
		w.shape[i] = extents[i]
	}
}

// ToCards serializes the WCS terms as FITS cards.
func (w *WCS) ToCards() []fitsio.Card {
	cards := []fitsio.Card{
		{Name: "WCSAXES", Value: w.naxis, Comment: "number of WCS axes"},
	}
	for i := 0; i < w.naxis; i++ {
		cards = append(cards,
			fitsio.Card{Name: fmt.Sprintf("CTYPE%d", i+1), Value: w.ctype[i]},
			fitsio.Card{Name: fmt.Sprintf("CUNIT%d", i+1), Value: w.cunit[i]},
			fitsio.Card{Name: fmt.Sprintf("CRPIX%d", i+1), Value: w.crpix[i]},
			fitsio.Card{Name: fmt.Sprintf("CRVAL%d", i+1), Value: w.crval[i]},
		)
	}
	for i := 0; i < w.naxis; i++ {
		for j := 0; j < w.naxis; j++ {
			cards = append(cards, fitsio.Card{
				Name:  fmt.Sprintf("CD%d_%d", i+1, j+1),
				Value: w.cd[i][j],
			})
		}
	}
	return cards
}

// UpdateHeader folds the WCS cards into hdr, mutating cards that exist
// and appending the ones that don't. Stale cards from dropped axes are
// left behind, matching how FITS headers are updated in practice.
func (w *WCS) UpdateHeader(hdr *fitsio.Header) error {
	for _, card := range w.ToCards() {
		if c := hdr.Get(card.Name); c != nil {
			c.Value = card.Value
			continue
		}
		if err := hdr.Append(card); err != nil {
			return fmt.Errorf("wcs: header update %s: %v", card.Name, err)
		}
	}
	return nil
}

func (w *WCS) copy() *WCS {
	w2 := &WCS{
		naxis: w.naxis,
		ctype: append([]string(nil), w.ctype...),
		cunit: append([]string(nil), w.cunit...),
		crpix: append([]float64(nil), w.crpix...),
		crval: append([]float64(nil), w.crval...),
		shape: append([]int(nil), w.shape...),
		cd:    make([][]float64, w.naxis),
	}
	for i := range w.cd {
		w2.cd[i] = append([]float64(nil), w.cd[i]...)
	}
	return w2
}

// celestial reports whether the two spatial axes carry a TAN-projected
// celestial coordinate pair.
func (w *WCS) celestial() bool {
	return strings.HasSuffix(w.ctype[0], "-TAN") && strings.HasSuffix(w.ctype[1], "-TAN")
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

func hasCDMatrix(hdr *fitsio.Header, n int) bool {
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			if hdr.Get(fmt.Sprintf("CD%d_%d", i, j)) != nil {
				return true
			}
		}
	}
	return false
}

func stringCard(hdr *fitsio.Header, name, def string) string {
	if c := hdr.Get(name); c != nil {
		if s, ok := c.Value.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return def
}

func floatCard(hdr *fitsio.Header, name string, def float64) float64 {
	if c := hdr.Get(name); c != nil {
		switch v := c.Value.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return def
}

func intValue(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

func dropStr(s []string, i int) []string {
	out := append([]string(nil), s[:i]...)
	return append(out, s[i+1:]...)
}

func dropF64(s []float64, i int) []float64 {
	out := append([]float64(nil), s[:i]...)
	return append(out, s[i+1:]...)
}

func dropInt(s []int, i int) []int {
	out := append([]int(nil), s[:i]...)
	return append(out, s[i+1:]...)
}
