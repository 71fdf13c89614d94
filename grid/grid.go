/*
Package grid classifies the pixels of a barrier image into a rectangular grid
of terrain codes.

The grid is row-major with the top row first, so Grid[y][x] is the code for
the pixel at column x of row y. It has exactly as many rows and columns as the
source image has pixels.
*/
package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/barrier/palette"
)

// ErrEmpty is returned when classifying an image with no pixels
var ErrEmpty = errors.New("grid: image has no pixels")

// Grid is a row-major grid of terrain codes
type Grid [][]palette.Code

// Width returns the number of columns
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height returns the number of rows
func (g Grid) Height() int {
	return len(g)
}

// ColorError reports a pixel whose colour is not in the palette
type ColorError struct {
	X, Y    int
	Color   color.NRGBA
	Palette palette.Palette
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("grid: pixel (%d, %d) is rgba(%d, %d, %d, %d) which is not in the %s palette, nearest is %s",
		e.X, e.Y, e.Color.R, e.Color.G, e.Color.B, e.Color.A, e.Palette, e.Palette.Nearest(e.Color).Name)
}

func toNRGBA(m image.Image) *image.NRGBA {
	if n, ok := m.(*image.NRGBA); ok {
		return n
	}
	b := m.Bounds()
	n := image.NewNRGBA(b)
	draw.Draw(n, b, m, b.Min, draw.Src)
	return n
}

// Classify maps every pixel of m to a terrain code using p. The first pixel
// that doesn't exactly match a palette entry aborts the classification with a
// *ColorError; no partial grid is returned.
func Classify(m image.Image, p palette.Palette) (Grid, error) {
	b := m.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}

	n := toNRGBA(m)
	width, height := b.Dx(), b.Dy()

	g := make(Grid, height)
	for y := 0; y < height; y++ {
		row := make([]palette.Code, width)
		for x := 0; x < width; x++ {
			i := n.PixOffset(b.Min.X+x, b.Min.Y+y)
			c := color.NRGBA{n.Pix[i], n.Pix[i+1], n.Pix[i+2], n.Pix[i+3]}

			code, ok := p.Lookup(c)
			if !ok {
				return nil, &ColorError{
					X:       x,
					Y:       y,
					Color:   c,
					Palette: p,
				}
			}
			row[x] = code
		}
		g[y] = row
	}

	return g, nil
}
