// Package astroimg wraps a FITS image in a convenience handle: load
// with axis squeezing, world/pixel cutouts, preview rendering, circular
// aperture photometry, sigma-clipped statistics, blank-region masking
// and FITS export. The handle itself just marshals parameters; FITS IO
// is astrogo/fitsio, statistics are gonum, drawing is fogleman/gg.
package astroimg

import (
	"fmt"

	"github.com/astrogo/fitsio"

	"github.com/astrokit/astroimg/pkg/fgrid"
	"github.com/astrokit/astroimg/pkg/wcs"
)

// An Image owns a 2D pixel grid, the FITS header it came from, the
// world coordinate transform, and the projection-plane pixel scale in
// arcsec/pixel along each spatial axis (computed once at construction).
type Image struct {
	Data       *fgrid.Grid
	Header     *fitsio.Header
	WCS        *wcs.WCS
	PixelScale [2]float64
}

// newFromParts wraps already-computed pieces, as cutouts do. Note the
// header may be shared with (and mutated by) the parent handle.
func newFromParts(data *fgrid.Grid, hdr *fitsio.Header, w *wcs.WCS, scale [2]float64) *Image {
	return &Image{
		Data:       data,
		Header:     hdr,
		WCS:        w,
		PixelScale: scale,
	}
}

func (im *Image) String() string {
	return fmt.Sprintf("2D (%d, %d) AstroImage", im.Data.Dy(), im.Data.Dx())
}
