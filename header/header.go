/*
Package header writes a barrier grid as a C++ header for the Nintendo DS stage
build.

The header declares, for a symbolic name X:

	X_WIDTH, X_HEIGHT   fixed screen dimensions
	X_CELL_SIZE         fixed cell size
	CREATE_X_TANKS      forward declaration of the stage's tank constructor
	X_BARRIERS          the grid, dimensioned [SCREEN_HEIGHT][SCREEN_WIDTH]

SCREEN_WIDTH, SCREEN_HEIGHT, Stage and Tank are supplied by the including
build, not by the header.
*/
package header

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"

	"github.com/bodgit/barrier/grid"
)

const (
	// DefaultWidth is the width of the Nintendo DS screen in pixels
	DefaultWidth = 256
	// DefaultHeight is the height of the Nintendo DS screen in pixels
	DefaultHeight = 192
	// DefaultCellSize is the size of a stage cell in pixels
	DefaultCellSize = 16
)

var (
	errBadName = errors.New("header: invalid symbolic name")
	errEmpty   = errors.New("header: grid is empty")
)

var validName = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Options controls the declarations written around the grid
type Options struct {
	Name     string
	Width    int
	Height   int
	CellSize int
}

// DefaultOptions returns the options for the DS screen with the given
// symbolic name
func DefaultOptions(name string) Options {
	return Options{
		Name:     name,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		CellSize: DefaultCellSize,
	}
}

var includes = []string{
	`"../Stage.h"`,
	`"../Tank.h"`,
	`"nds/arm9/video.h"`,
}

type encoder struct {
	w *bufio.Writer
	o Options
}

func (e *encoder) constant(suffix string, v int) {
	e.w.WriteString("const int " + e.o.Name + suffix + " = " + strconv.Itoa(v) + ";\n")
}

func (e *encoder) encode(g grid.Grid) error {
	guard := e.o.Name + "_H"

	e.w.WriteString("#ifndef " + guard + "\n")
	e.w.WriteString("#define " + guard + "\n\n")

	for _, inc := range includes {
		e.w.WriteString("#include " + inc + "\n")
	}
	e.w.WriteString("\n")

	e.constant("_WIDTH", e.o.Width)
	e.constant("_HEIGHT", e.o.Height)
	e.w.WriteString("\n")
	e.constant("_CELL_SIZE", e.o.CellSize)
	e.w.WriteString("std::vector<Tank *> *CREATE_" + e.o.Name + "_TANKS(Stage *stage);\n\n")

	e.w.WriteString("const int " + e.o.Name + "_BARRIERS[SCREEN_HEIGHT][SCREEN_WIDTH] = {\n")
	for y, row := range g {
		if y > 0 {
			e.w.WriteString(",\n")
		}
		e.w.WriteString("    { ")
		for x, code := range row {
			if x > 0 {
				e.w.WriteString(", ")
			}
			e.w.WriteString(strconv.Itoa(int(code)))
		}
		e.w.WriteString(" }")
	}
	e.w.WriteString("\n};\n\n")

	e.w.WriteString("#endif // " + guard + "\n")

	// bufio.Writer errors are sticky so any earlier failure surfaces here
	return e.w.Flush()
}

// Encode writes g to w as a C++ header using the declarations in o
func Encode(w io.Writer, g grid.Grid, o Options) error {
	if !validName.MatchString(o.Name) {
		return errBadName
	}
	if g.Height() == 0 || g.Width() == 0 {
		return errEmpty
	}

	e := encoder{
		w: bufio.NewWriter(w),
		o: o,
	}

	return e.encode(g)
}
