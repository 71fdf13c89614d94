/*
Package barrier converts stage barrier images into grids of terrain codes and
writes them either as C++ headers for the Nintendo DS build or as JSON
documents for tooling.

Each pixel must exactly match a colour in the selected palette. A single
unrecognised pixel aborts the conversion of that image and nothing is written
for it.
*/
package barrier

import (
	"fmt"
	"log"

	"github.com/bodgit/barrier/cache"
	"github.com/bodgit/barrier/header"
	"github.com/bodgit/barrier/palette"
)

// Format selects the artifact written for each image
type Format int

const (
	// Header writes a C++ header
	Header Format = iota
	// JSON writes a nested JSON array
	JSON
)

func (f Format) String() string {
	switch f {
	case Header:
		return "header"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Options describes how an image is converted
type Options struct {
	Palette palette.Palette
	Format  Format

	// Declared screen and cell dimensions, used by the Header format only
	Width    int
	Height   int
	CellSize int

	// SkipSizeCheck allows Header conversion of images that aren't
	// exactly Width by Height pixels
	SkipSizeCheck bool
}

// DefaultOptions returns the options for the given palette and format using
// the Nintendo DS screen dimensions
func DefaultOptions(p palette.Palette, f Format) Options {
	return Options{
		Palette:  p,
		Format:   f,
		Width:    header.DefaultWidth,
		Height:   header.DefaultHeight,
		CellSize: header.DefaultCellSize,
	}
}

func (o Options) mode() string {
	if o.Format == JSON {
		return fmt.Sprintf("%s/%s", o.Format, o.Palette)
	}
	return fmt.Sprintf("%s/%s/%dx%d/%d/%t", o.Format, o.Palette, o.Width, o.Height, o.CellSize, o.SkipSizeCheck)
}

// Converter converts barrier images
type Converter struct {
	cache  *cache.Cache
	logger *log.Logger
}

// New returns a Converter. c may be nil in which case every image is always
// converted.
func New(c *cache.Cache, logger *log.Logger) *Converter {
	return &Converter{
		cache:  c,
		logger: logger,
	}
}
