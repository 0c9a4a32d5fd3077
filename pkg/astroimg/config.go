package astroimg

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/astrokit/astroimg/pkg/render"
)

// Config collects the knobs the CLI (and callers that want one bag of
// defaults) feed into previews, photometry and statistics.
type Config struct {
	Verbosity int

	Cmap  string  // preview palette
	Gamma float64 // preview palette gamma

	Zeropoint float64 // photometric zeropoint, mags

	ClipSigma    float64 // sigma-clipped stats: clip threshold
	ClipMaxIters int     // sigma-clipped stats: iteration cap

	MaskThreshold float64 // extra margin on the blank-value count cut
}

func NewConfig() Config {
	return Config{
		Cmap:          "gray_r",
		Gamma:         1.0,
		Zeropoint:     0.0,
		ClipSigma:     defaultClipSigma,
		ClipMaxIters:  defaultClipMaxIters,
		MaskThreshold: 10000,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	c := NewConfig()
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return Config{}, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// RenderOptions maps the config onto the renderer's options.
func (c Config) RenderOptions() render.Options {
	return render.Options{Cmap: c.Cmap, Gamma: c.Gamma}
}
