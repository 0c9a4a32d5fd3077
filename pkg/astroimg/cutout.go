package astroimg

import (
	"fmt"
	"math"
)

// Cutout extracts a box-shaped subimage centered on a sky coordinate.
// coord is {RA, Dec} in degrees; box is {width, height} in arcsec. The
// box may hang over the image edge: pixels outside the parent are NaN.
//
// The returned handle gets a fresh grid and transform, but SHARES the
// parent's header, which is mutated with the cutout's WCS cards.
func (im *Image) Cutout(coord, box [2]float64) (*Image, error) {
	x, y, err := im.WCS.WorldToPixel(coord[0], coord[1])
	if err != nil {
		return nil, fmt.Errorf("cutout center: %v", err)
	}
	nx := int(math.Round(box[0] / im.PixelScale[0]))
	ny := int(math.Round(box[1] / im.PixelScale[1]))
	return im.cutoutAt(x, y, nx, ny)
}

// CutoutPixel is Cutout with coord {x, y} and box {width, height} given
// directly in pixels.
func (im *Image) CutoutPixel(coord, box [2]float64) (*Image, error) {
	return im.cutoutAt(coord[0], coord[1], int(math.Round(box[0])), int(math.Round(box[1])))
}

func (im *Image) cutoutAt(x, y float64, nx, ny int) (*Image, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("cutout box %dx%d px is empty", nx, ny)
	}

	// Lower-left corner so that (x, y) sits at the box center
	x0 := int(math.Floor(x - (float64(nx)-1)/2 + 0.5))
	y0 := int(math.Floor(y - (float64(ny)-1)/2 + 0.5))

	if x0 >= im.Data.Dx() || y0 >= im.Data.Dy() || x0+nx <= 0 || y0+ny <= 0 {
		return nil, fmt.Errorf("cutout at (%.1f, %.1f) px does not overlap the %dx%d image",
			x, y, im.Data.Dx(), im.Data.Dy())
	}

	sub := im.Data.SubGridPartial(x0, y0, nx, ny)

	wcut := im.WCS.Slice(x0, y0)
	wcut.SetShape(nx, ny)
	if err := wcut.UpdateHeader(im.Header); err != nil {
		return nil, err
	}

	return newFromParts(sub, im.Header, wcut, im.PixelScale), nil
}
