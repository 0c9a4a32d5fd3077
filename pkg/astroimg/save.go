package astroimg

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
)

// Cards the FITS library owns; never copied into an output header.
var structuralKeys = map[string]bool{
	"SIMPLE":   true,
	"XTENSION": true,
	"BITPIX":   true,
	"NAXIS":    true,
	"EXTEND":   true,
	"PCOUNT":   true,
	"GCOUNT":   true,
	"BZERO":    true,
	"BSCALE":   true,
	"END":      true,
}

// Save writes the handle as a single-extension float64 FITS file,
// overwriting filename if it exists.
func (im *Image) Save(filename string) error {
	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("fits create '%s': %v", filename, err)
	}
	defer f.Close()

	out := fitsio.NewImage(-64, []int{im.Data.Dx(), im.Data.Dy()})
	defer out.Close()

	if err := out.Header().Append(im.exportCards()...); err != nil {
		return fmt.Errorf("fits header '%s': %v", filename, err)
	}

	data := im.Data.Values()
	if err := out.Write(&data); err != nil {
		return fmt.Errorf("fits data '%s': %v", filename, err)
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("fits write '%s': %v", filename, err)
	}

	// The OS close is the only flush signal; fitsio's Close never
	// touches the writer.
	if err := w.Close(); err != nil {
		return fmt.Errorf("close '%s': %v", filename, err)
	}
	return nil
}

// exportCards copies the current header, skipping structural cards and
// the axis-count cards (astrogo/fitsio regenerates those from the data)
// and layering the live WCS on top.
func (im *Image) exportCards() []fitsio.Card {
	var cards []fitsio.Card
	seen := map[string]bool{}

	for _, card := range im.WCS.ToCards() {
		cards = append(cards, card)
		seen[card.Name] = true
	}

	for _, key := range im.Header.Keys() {
		if structuralKeys[key] || seen[key] || isAxisKey(key) {
			continue
		}
		c := im.Header.Get(key)
		if c == nil {
			continue
		}
		cards = append(cards, fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment})
		seen[key] = true
	}
	return cards
}

func isAxisKey(key string) bool {
	if len(key) < 6 || key[:5] != "NAXIS" {
		return false
	}
	for _, r := range key[5:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
