package astroimg

import (
	"fmt"
	"log"

	"github.com/astrokit/astroimg/pkg/render"
)

// Preview renders the image for a quick look: zscale stretch, the
// palette named in opts (gamma-reshaped when opts.Gamma != 1), sky
// axis labels and a colorbar. Science plots should be drawn by hand.
func (im *Image) Preview(opts render.Options) (*render.Figure, error) {
	return render.New(im.Data, im.WCS, opts)
}

// DrawBeam overlays the restoring beam from the BMAJ/BMIN/BPA header
// cards (degrees) onto a rendered figure, sized through the pixel
// scale. Errors when any of the three cards is missing.
func (im *Image) DrawBeam(fig *render.Figure) error {
	for _, key := range []string{"BMAJ", "BMIN", "BPA"} {
		if im.Header.Get(key) == nil {
			return fmt.Errorf("no %s card, cannot draw a beam", key)
		}
	}
	bmaj := 3600 * headerFloat(im.Header, "BMAJ", 0) // arcsec
	bmin := 3600 * headerFloat(im.Header, "BMIN", 0)
	bpa := headerFloat(im.Header, "BPA", 0) // degrees east of north
	log.Printf("BMAJ: %.3f\", BMIN: %.3f\", BPA: %.2f deg", bmaj, bmin, bpa)

	fig.DrawBeam(bmin/im.PixelScale[0], bmaj/im.PixelScale[1], bpa)
	return nil
}
