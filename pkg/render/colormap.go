package render

import (
	"fmt"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// A Colormap is a 256-entry display palette.
type Colormap struct {
	name   string
	colors [256]colorful.Color
}

// NewColormap returns the named palette. Names ending in "_r" reverse
// the base palette.
func NewColormap(name string) (Colormap, error) {
	base := name
	reversed := false
	if len(name) > 2 && name[len(name)-2:] == "_r" {
		base = name[:len(name)-2]
		reversed = true
	}

	var anchors []colorful.Color
	switch base {
	case "gray", "grey":
		anchors = mustHex("#000000", "#ffffff")
	case "heat":
		anchors = mustHex("#000000", "#b22222", "#ffa500", "#ffff66", "#ffffff")
	case "cool":
		anchors = mustHex("#00ffff", "#ff00ff")
	case "viridis":
		anchors = mustHex("#440154", "#3b528b", "#21918c", "#5ec962", "#fde725")
	default:
		return Colormap{}, fmt.Errorf("render: no colormap named %q", name)
	}

	cm := Colormap{name: name}
	for i := 0; i < 256; i++ {
		t := float64(i) / 255
		if reversed {
			t = 1 - t
		}
		cm.colors[i] = blendAnchors(anchors, t)
	}
	return cm, nil
}

// Gamma reshapes the palette through a gamma curve: entry i is replaced
// by entry 255*(i/255)^gamma. Gamma 1 is the identity.
func (cm Colormap) Gamma(gamma float64) Colormap {
	if gamma == 1 {
		return cm
	}
	out := Colormap{name: cm.name}
	for i := 0; i < 256; i++ {
		j := int(255 * math.Pow(float64(i)/255, gamma))
		if j < 0 {
			j = 0
		}
		if j > 255 {
			j = 255
		}
		out.colors[i] = cm.colors[j]
	}
	return out
}

// At maps t in [0, 1] to a palette color. Out-of-range values clamp.
func (cm Colormap) At(t float64) color.Color {
	if math.IsNaN(t) {
		t = 0
	}
	i := int(t * 255)
	if i < 0 {
		i = 0
	}
	if i > 255 {
		i = 255
	}
	return cm.colors[i].Clamped()
}

func (cm Colormap) Name() string { return cm.name }

func blendAnchors(anchors []colorful.Color, t float64) colorful.Color {
	if len(anchors) == 1 {
		return anchors[0]
	}
	seg := t * float64(len(anchors)-1)
	i := int(seg)
	if i >= len(anchors)-1 {
		i = len(anchors) - 2
	}
	return anchors[i].BlendLuv(anchors[i+1], seg-float64(i)).Clamped()
}

func mustHex(hexes ...string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}
