package astroimg

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit/astroimg/pkg/render"
)

const asec = 1.0 / 3600

// writeFITS lays down a float64 image fixture with TAN WCS cards.
func writeFITS(t *testing.T, path string, axes []int, data []float64, extra ...fitsio.Card) {
	t.Helper()

	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()

	img := fitsio.NewImage(-64, axes)
	defer img.Close()

	cards := []fitsio.Card{
		{Name: "CTYPE1", Value: "RA---TAN"},
		{Name: "CTYPE2", Value: "DEC--TAN"},
		{Name: "CUNIT1", Value: "deg"},
		{Name: "CUNIT2", Value: "deg"},
		{Name: "CRPIX1", Value: float64(axes[0]/2) + 1},
		{Name: "CRPIX2", Value: float64(axes[1]/2) + 1},
		{Name: "CRVAL1", Value: 150.0},
		{Name: "CRVAL2", Value: 30.0},
		{Name: "CD1_1", Value: -asec},
		{Name: "CD2_2", Value: asec},
	}
	cards = append(cards, extra...)
	require.NoError(t, img.Header().Append(cards...))
	require.NoError(t, img.Write(&data))
	require.NoError(t, f.Write(img))
}

// writeByteFITS lays down a 2x2 BITPIX 8 fixture with TAN WCS cards.
func writeByteFITS(t *testing.T, path string, data []uint8) {
	t.Helper()

	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()

	img := fitsio.NewImage(8, []int{2, 2})
	defer img.Close()

	require.NoError(t, img.Header().Append(
		fitsio.Card{Name: "CTYPE1", Value: "RA---TAN"},
		fitsio.Card{Name: "CTYPE2", Value: "DEC--TAN"},
		fitsio.Card{Name: "CUNIT1", Value: "deg"},
		fitsio.Card{Name: "CUNIT2", Value: "deg"},
		fitsio.Card{Name: "CRPIX1", Value: 1.0},
		fitsio.Card{Name: "CRPIX2", Value: 1.0},
		fitsio.Card{Name: "CRVAL1", Value: 150.0},
		fitsio.Card{Name: "CRVAL2", Value: 30.0},
		fitsio.Card{Name: "CD1_1", Value: -asec},
		fitsio.Card{Name: "CD2_2", Value: asec},
	))
	require.NoError(t, img.Write(&data))
	require.NoError(t, f.Write(img))
}

func rampData(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func fixture2D(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fix.fits")
	writeFITS(t, path, []int{w, h}, rampData(w*h))
	return path
}

func TestOpen_2D(t *testing.T) {
	img, err := Open(fixture2D(t, 100, 80), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, img.WCS.NAxis())
	assert.Equal(t, 100, img.Data.Dx())
	assert.Equal(t, 80, img.Data.Dy())
	assert.InDelta(t, 1.0, img.PixelScale[0], 1e-9, "arcsec/px")
	assert.InDelta(t, 1.0, img.PixelScale[1], 1e-9)
	assert.Equal(t, "2D (80, 100) AstroImage", img.String())
	assert.Equal(t, 42.0, img.Data.Get(42, 0))
}

func TestOpen_UnsignedBytePixels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "byte.fits")
	writeByteFITS(t, path, []uint8{0, 127, 200, 255})

	img, err := Open(path, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, img.Data.Get(0, 0))
	assert.Equal(t, 127.0, img.Data.Get(1, 0))
	assert.Equal(t, 200.0, img.Data.Get(0, 1), "bytes above 127 stay positive")
	assert.Equal(t, 255.0, img.Data.Get(1, 1))
}

func TestOpen_SqueezesSingletonAxis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.fits")
	writeFITS(t, path, []int{100, 80, 1}, rampData(100*80),
		fitsio.Card{Name: "CTYPE3", Value: "FREQ"},
		fitsio.Card{Name: "CRPIX3", Value: 1.0},
		fitsio.Card{Name: "CRVAL3", Value: 1.4e9},
		fitsio.Card{Name: "CD3_3", Value: 1.0},
	)

	img, err := Open(path, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, img.WCS.NAxis())
	assert.Equal(t, 100, img.Data.Dx())
	assert.Equal(t, 80, img.Data.Dy())
}

func TestOpen_RefusesNonSingletonExtraAxis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.fits")
	writeFITS(t, path, []int{10, 10, 2}, rampData(200),
		fitsio.Card{Name: "CTYPE3", Value: "FREQ"},
		fitsio.Card{Name: "CD3_3", Value: 1.0},
	)

	_, err := Open(path, 0)
	assert.Error(t, err, "a real third axis cannot be squeezed away")
}

func TestOpen_BadInputs(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.fits"), 0)
	assert.Error(t, err)

	_, err = Open(fixture2D(t, 10, 10), 3)
	assert.Error(t, err, "extension out of range")
}

func TestCutoutPixel_FullBoxIsIdentity(t *testing.T) {
	img, err := Open(fixture2D(t, 100, 80), 0)
	require.NoError(t, err)

	cut, err := img.CutoutPixel([2]float64{49.5, 39.5}, [2]float64{100, 80})
	require.NoError(t, err)

	require.Equal(t, 100, cut.Data.Dx())
	require.Equal(t, 80, cut.Data.Dy())
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, img.Data.Get(x, y), cut.Data.Get(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestCutout_SkyBox(t *testing.T) {
	img, err := Open(fixture2D(t, 100, 80), 0)
	require.NoError(t, err)

	ra, dec, err := img.WCS.PixelToWorld(49.5, 39.5)
	require.NoError(t, err)

	// 20x10 arcsec at 1 arcsec/px
	cut, err := img.Cutout([2]float64{ra, dec}, [2]float64{20, 10})
	require.NoError(t, err)

	assert.Equal(t, 20, cut.Data.Dx())
	assert.Equal(t, 10, cut.Data.Dy())
	assert.Equal(t, img.PixelScale, cut.PixelScale)

	// center pixel keeps its world coordinate
	ra2, dec2, err := cut.WCS.PixelToWorld(9.5, 4.5)
	require.NoError(t, err)
	assert.InDelta(t, ra, ra2, 1e-9)
	assert.InDelta(t, dec, dec2, 1e-9)
}

func TestCutout_PartialOverlapFillsNaN(t *testing.T) {
	img, err := Open(fixture2D(t, 50, 50), 0)
	require.NoError(t, err)

	cut, err := img.CutoutPixel([2]float64{0, 0}, [2]float64{11, 11})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(cut.Data.Get(0, 0)), "outside the parent")
	assert.Equal(t, 0.0, cut.Data.Get(5, 5), "parent (0,0) lands at the box center")
}

func TestCutout_NoOverlap(t *testing.T) {
	img, err := Open(fixture2D(t, 50, 50), 0)
	require.NoError(t, err)

	_, err = img.CutoutPixel([2]float64{500, 500}, [2]float64{10, 10})
	assert.Error(t, err)
}

func TestCutout_MutatesSharedHeader(t *testing.T) {
	img, err := Open(fixture2D(t, 100, 80), 0)
	require.NoError(t, err)

	before := img.Header.Get("CRPIX1").Value.(float64)
	cut, err := img.CutoutPixel([2]float64{70, 40}, [2]float64{20, 20})
	require.NoError(t, err)

	assert.Same(t, img.Header, cut.Header, "cutout shares the parent header")
	after := img.Header.Get("CRPIX1").Value.(float64)
	assert.NotEqual(t, before, after, "parent header carries the cutout WCS now")
}

func TestMaskBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.fits")
	data := make([]float64, 100*100)
	for i := range data {
		if i%10 == 0 { // 10% of pixels get distinct values, the rest stay 0
			data[i] = 1 + float64(i)*0.001
		}
	}
	writeFITS(t, path, []int{100, 100}, data)

	img, err := Open(path, 0)
	require.NoError(t, err)

	got := img.MaskBlank(100)
	assert.Same(t, img, got, "chainable")

	masked, kept := 0, 0
	for _, v := range img.Data.Values() {
		if math.IsNaN(v) {
			masked++
		} else {
			kept++
			assert.Greater(t, v, 0.0, "non-fill pixels untouched")
		}
	}
	assert.Equal(t, 9000, masked)
	assert.Equal(t, 1000, kept)
}

func TestMaskBlank_NothingDominates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nomask.fits")
	writeFITS(t, path, []int{20, 20}, rampData(400))

	img, err := Open(path, 0)
	require.NoError(t, err)
	img.MaskBlank(10000)

	for _, v := range img.Data.Values() {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSigmaClippedStats_Constant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "const.fits")
	data := make([]float64, 40*40)
	for i := range data {
		data[i] = 3.5
	}
	writeFITS(t, path, []int{40, 40}, data)

	img, err := Open(path, 0)
	require.NoError(t, err)

	for _, tt := range []struct {
		sigma    float64
		maxiters int
	}{{2, 5}, {0.1, 1}, {50, 100}} {
		mean, median, stddev := img.SigmaClippedStats(tt.sigma, tt.maxiters)
		assert.Equal(t, 3.5, mean)
		assert.Equal(t, 3.5, median)
		assert.Equal(t, 0.0, stddev)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.fits")
	writeFITS(t, src, []int{60, 40}, rampData(60*40),
		fitsio.Card{Name: "OBJECT", Value: "M31", Comment: "target name"},
	)

	img, err := Open(src, 0)
	require.NoError(t, err)

	out := filepath.Join(dir, "out.fits")
	require.NoError(t, img.Save(out))

	img2, err := Open(out, 0)
	require.NoError(t, err)

	assert.Equal(t, img.Data.Values(), img2.Data.Values(), "bit-exact float64 round trip")
	assert.Equal(t, img.WCS.NAxis(), img2.WCS.NAxis())
	assert.InDelta(t, img.PixelScale[0], img2.PixelScale[0], 1e-9)
	assert.InDelta(t, img.PixelScale[1], img2.PixelScale[1], 1e-9)
	require.NotNil(t, img2.Header.Get("OBJECT"))
	assert.Equal(t, "M31", img2.Header.Get("OBJECT").Value)
}

func TestSave_ReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this platform")
	}

	img, err := Open(fixture2D(t, 10, 10), 0)
	require.NoError(t, err)
	assert.Error(t, img.Save("/dev/full"), "a full device must not report success")
}

func TestSave_Overwrites(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.fits")
	require.NoError(t, os.WriteFile(out, []byte("junk"), 0644))

	img, err := Open(fixture2D(t, 10, 10), 0)
	require.NoError(t, err)
	require.NoError(t, img.Save(out))

	_, err = Open(out, 0)
	assert.NoError(t, err, "junk got replaced by a valid FITS file")
}

func TestPhotometry_FlatField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.fits")
	data := make([]float64, 100*100)
	for i := range data {
		data[i] = 3.0
	}
	writeFITS(t, path, []int{100, 100}, data)

	img, err := Open(path, 0)
	require.NoError(t, err)

	ra, dec, err := img.WCS.PixelToWorld(49.5, 49.5)
	require.NoError(t, err)

	const r = 5.0 // arcsec = 5 px at this scale
	wantFlux := 3.0 * math.Pi * r * r
	wantMag := -2.5*math.Log10(wantFlux) + 25

	mag, sky, err := img.Photometry([2]float64{ra, dec}, r, CoordSky, 25)
	require.NoError(t, err)
	assert.InDelta(t, wantMag, mag, 0.01)
	assert.InDelta(t, ra, sky.RA, 1e-9)
	assert.InDelta(t, dec, sky.Dec, 1e-9)

	// pixel mode hits the same spot
	magPx, _, err := img.Photometry([2]float64{49.5, 49.5}, r, CoordPixel, 25)
	require.NoError(t, err)
	assert.InDelta(t, mag, magPx, 1e-9)
}

func TestPhotometryPlot(t *testing.T) {
	img, err := Open(fixture2D(t, 50, 50), 0)
	require.NoError(t, err)

	mag, _, fig, err := img.PhotometryPlot([2]float64{24.5, 24.5}, 3, CoordPixel, 25, NewConfig().RenderOptions())
	require.NoError(t, err)
	require.NotNil(t, fig)
	assert.False(t, math.IsNaN(mag))

	out := filepath.Join(t.TempDir(), "phot.png")
	require.NoError(t, fig.Save(out))
}

func TestDrawBeam(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam.fits")
	writeFITS(t, path, []int{40, 40}, make([]float64, 40*40),
		fitsio.Card{Name: "BMAJ", Value: 6 * asec},
		fitsio.Card{Name: "BMIN", Value: 3 * asec},
		fitsio.Card{Name: "BPA", Value: 30.0},
	)

	img, err := Open(path, 0)
	require.NoError(t, err)

	fig, err := img.Preview(render.Options{Cmap: "gray", Scale: 200})
	require.NoError(t, err)
	require.NoError(t, img.DrawBeam(fig))

	// constant data renders black under "gray", so the white beam
	// outline near grid (2,2) is the only bright thing in that corner
	cx, cy := fig.DataToCanvas(2, 2)
	canvas := fig.Image()
	found := false
	for y := int(cy) - 20; y <= int(cy)+12 && !found; y++ {
		for x := int(cx) - 10; x <= int(cx)+20; x++ {
			r, g, b, _ := canvas.At(x, y).RGBA()
			if r>>8 >= 240 && g>>8 >= 240 && b>>8 >= 240 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "white beam ellipse stroked in the corner")
}

func TestDrawBeam_NeedsBeamCards(t *testing.T) {
	img, err := Open(fixture2D(t, 20, 20), 0)
	require.NoError(t, err)

	fig, err := img.Preview(render.Options{})
	require.NoError(t, err)
	assert.Error(t, img.DrawBeam(fig))
}

func TestMagErr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.fits")
	data := make([]float64, 50*50)
	for i := range data {
		data[i] = float64(i%2) * 2 // alternating 0 and 2: stddev 1
	}
	writeFITS(t, path, []int{50, 50}, data)

	img, err := Open(path, 0)
	require.NoError(t, err)

	// mag == zeropoint means flux 1
	const area = 16.0
	want := 2.5 / math.Ln10 * math.Sqrt(area)
	assert.InDelta(t, want, img.MagErr(25, 25, area), 1e-9)
}

func TestConfigYaml(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "gray_r", cfg.Cmap)
	assert.Contains(t, cfg.AsYaml(), "zeropoint")

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cmap: heat\ngamma: 2.0\nzeropoint: 27.5\n"), 0644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "heat", loaded.Cmap)
	assert.Equal(t, 2.0, loaded.Gamma)
	assert.Equal(t, 27.5, loaded.Zeropoint)
	assert.Equal(t, 5, loaded.ClipMaxIters, "unset keys keep defaults")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
