/*
Package palette defines the fixed colour palettes recognised in stage barrier
images and the terrain code each colour maps to.

Colours are compared by exact equality of their non-premultiplied 8-bit
channels, including alpha, so only fully opaque pixels can ever match.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Code is the barrier classification of a single grid cell
type Code int

const (
	// None is not a barrier for anything
	None Code = iota
	// Solid is a barrier for tanks, bullets and mines
	Solid
	// Heavy is a barrier for tanks only
	Heavy
	// Destructible is a barrier for tanks and bullets that can be
	// destroyed by mines
	Destructible
)

// Valid reports whether c is one of the defined terrain codes
func (c Code) Valid() bool {
	return c >= None && c <= Destructible
}

var (
	black = color.NRGBA{0x00, 0x00, 0x00, 0xff}
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	blue  = color.NRGBA{0x00, 0x00, 0xff, 0xff}
	green = color.NRGBA{0x00, 0xff, 0x00, 0xff}
)

// Entry maps one exact colour to a terrain code
type Entry struct {
	Name  string
	Color color.NRGBA
	Code  Code
}

// Palette is an ordered set of entries. Entries are checked in order and the
// first match wins.
type Palette struct {
	Name    string
	Entries []Entry
}

var (
	// Two is the two-tone palette; black is open ground and white is a
	// solid barrier
	Two = Palette{
		Name: "two",
		Entries: []Entry{
			{"white", white, Solid},
			{"black", black, None},
		},
	}

	// Four is the four-colour palette used for stages with water and
	// destructible walls
	Four = Palette{
		Name: "four",
		Entries: []Entry{
			{"black", black, None},
			{"white", white, Solid},
			{"blue", blue, Heavy},
			{"green", green, Destructible},
		},
	}
)

var palettes = []Palette{Two, Four}

// ErrUnknownPalette is returned by ByName for an unrecognised name
var ErrUnknownPalette = errors.New("palette: unknown palette")

// ByName returns the palette with the given name
func ByName(name string) (Palette, error) {
	for _, p := range palettes {
		if p.Name == name {
			return p, nil
		}
	}
	return Palette{}, fmt.Errorf("%w %q", ErrUnknownPalette, name)
}

// Names returns the names of all known palettes
func Names() []string {
	names := make([]string, 0, len(palettes))
	for _, p := range palettes {
		names = append(names, p.Name)
	}
	return names
}

// Lookup returns the terrain code for the exact colour c
func (p Palette) Lookup(c color.NRGBA) (Code, bool) {
	for _, e := range p.Entries {
		if e.Color == c {
			return e.Code, true
		}
	}
	return None, false
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 0xff,
		G: float64(c.G) / 0xff,
		B: float64(c.B) / 0xff,
	}
}

// Nearest returns the entry perceptually closest to c. Alpha is ignored. It
// is only used to make error messages more helpful, classification never
// falls back to it.
func (p Palette) Nearest(c color.NRGBA) Entry {
	var best Entry
	bestDistance := -1.0
	cc := toColorful(c)
	for _, e := range p.Entries {
		if d := cc.DistanceLab(toColorful(e.Color)); bestDistance < 0 || d < bestDistance {
			best, bestDistance = e, d
		}
	}
	return best
}

func (p Palette) String() string {
	return p.Name
}
