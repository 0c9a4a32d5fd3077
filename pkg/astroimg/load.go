package astroimg

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/astrokit/astroimg/pkg/fgrid"
	"github.com/astrokit/astroimg/pkg/wcs"
)

// Open reads HDU ext of a FITS file into a fresh image handle. The file
// is fully read and closed before Open returns.
//
// Images with more than two axes are accepted as long as the extra axes
// are singletons: the highest axis is dropped repeatedly while its
// extent is 1, with the header updated in lockstep. If more than two
// axes remain after that, Open returns an error.
func Open(path string, ext int) (*Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", path, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("fits open '%s': %v", path, err)
	}
	defer f.Close()

	hdus := f.HDUs()
	if ext < 0 || ext >= len(hdus) {
		return nil, fmt.Errorf("'%s' has %d HDUs, no extension %d", path, len(hdus), ext)
	}
	img, ok := hdus[ext].(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("'%s' extension %d is not an image HDU", path, ext)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, fmt.Errorf("'%s' extension %d has %d axes, need at least 2", path, ext, len(axes))
	}

	values, err := readPixels(img, hdr)
	if err != nil {
		return nil, fmt.Errorf("'%s' extension %d: %v", path, ext, err)
	}

	w, err := wcs.NewFromHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("'%s' extension %d: %v", path, ext, err)
	}

	// Degenerate extra axes: drop the highest axis while it is a
	// singleton, folding each reduced WCS back into the header.
	for w.NAxis() > 2 && w.ArrayShape()[0] == 1 {
		w, err = w.DropAxis(w.NAxis() - 1)
		if err != nil {
			return nil, fmt.Errorf("'%s': %v", path, err)
		}
		if err := w.UpdateHeader(hdr); err != nil {
			return nil, fmt.Errorf("'%s': %v", path, err)
		}
	}
	if w.NAxis() != 2 {
		return nil, fmt.Errorf("'%s' still has %d axes %v after dropping singletons",
			path, w.NAxis(), w.AxisTypes())
	}

	grid, err := fgrid.FromValues(axes[0], axes[1], values)
	if err != nil {
		return nil, fmt.Errorf("'%s': %v", path, err)
	}

	scales := w.PixelScales()
	return &Image{
		Data:       grid,
		Header:     hdr,
		WCS:        w,
		PixelScale: [2]float64{scales[0] * 3600, scales[1] * 3600},
	}, nil
}

// readPixels reads the HDU data as float64, applying BZERO/BSCALE when
// the header carries them.
func readPixels(img fitsio.Image, hdr *fitsio.Header) ([]float64, error) {
	n := 1
	for _, ax := range hdr.Axes() {
		n *= ax
	}

	var values []float64
	switch bitpix := hdr.Bitpix(); bitpix {
	case 8:
		// BITPIX 8 is an unsigned byte.
		raw := make([]uint8, 0, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
		values = toFloat64(raw, func(v uint8) float64 { return float64(v) })
	case 16:
		raw := make([]int16, 0, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
		values = toFloat64(raw, func(v int16) float64 { return float64(v) })
	case 32:
		raw := make([]int32, 0, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
		values = toFloat64(raw, func(v int32) float64 { return float64(v) })
	case 64:
		raw := make([]int64, 0, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
		values = toFloat64(raw, func(v int64) float64 { return float64(v) })
	case -32:
		raw := make([]float32, 0, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
		values = toFloat64(raw, func(v float32) float64 { return float64(v) })
	case -64:
		values = make([]float64, 0, n)
		if err := img.Read(&values); err != nil {
			return nil, fmt.Errorf("read bitpix %d: %v", bitpix, err)
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	bzero := headerFloat(hdr, "BZERO", 0)
	bscale := headerFloat(hdr, "BSCALE", 1)
	if bzero != 0 || bscale != 1 {
		for i, v := range values {
			values[i] = bzero + bscale*v
		}
	}
	return values, nil
}

func toFloat64[T any](raw []T, conv func(T) float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = conv(v)
	}
	return out
}

func headerFloat(hdr *fitsio.Header, name string, def float64) float64 {
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
