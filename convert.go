package barrier

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	_ "image/png" // register PNG
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bodgit/barrier/cache"
	"github.com/bodgit/barrier/grid"
	"github.com/bodgit/barrier/header"
	_ "golang.org/x/image/bmp" // register BMP
)

// ErrWrongSize is returned when a Header conversion is attempted on an image
// that doesn't match the declared screen dimensions
var ErrWrongSize = errors.New("barrier: image is wrong size")

func readImage(file string) (image.Image, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	h := sha1.New()
	m, _, err := image.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", file, err)
	}

	return m, fmt.Sprintf("%X", h.Sum(nil)), nil
}

// writeFile replaces file with b. The bytes go to a temporary file in the
// same directory first so file is never left partially written.
func writeFile(file string, b []byte) (err error) {
	f, err := ioutil.TempFile(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(f.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(f.Name(), file)
}

// Render classifies m and returns the artifact. name is the symbolic name
// used by the Header format.
func Render(m image.Image, name string, o Options) ([]byte, error) {
	g, err := grid.Classify(m, o.Palette)
	if err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)

	switch o.Format {
	case Header:
		if !o.SkipSizeCheck && (g.Width() != o.Width || g.Height() != o.Height) {
			return nil, fmt.Errorf("%w: got %dx%d, expected %dx%d", ErrWrongSize, g.Width(), g.Height(), o.Width, o.Height)
		}
		if err := header.Encode(b, g, header.Options{
			Name:     name,
			Width:    o.Width,
			Height:   o.Height,
			CellSize: o.CellSize,
		}); err != nil {
			return nil, err
		}
	case JSON:
		if err := g.WriteJSON(b); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("barrier: unknown format %s", o.Format)
	}

	return b.Bytes(), nil
}

// Convert converts the image in input and writes the artifact to output. The
// symbolic name for the Header format is derived from output. On any error
// output is left untouched.
func (c *Converter) Convert(input, output string, o Options) error {
	output, err := filepath.Abs(output)
	if err != nil {
		return err
	}

	m, sum, err := readImage(input)
	if err != nil {
		return err
	}

	mode := o.mode()

	if c.cache != nil {
		fresh, err := c.cache.Fresh(output, sum, mode)
		if err != nil {
			return err
		}
		if fresh {
			c.logger.Printf("%s is up to date\n", output)
			return nil
		}
	}

	b, err := Render(m, SymbolName(output), o)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if err := writeFile(output, b); err != nil {
		return err
	}

	// The artifact is already written, cache failures are only logged
	if c.cache != nil {
		if err := c.cache.Put(output, sum, mode, cache.Sum(b)); err != nil {
			c.logger.Printf("Failed to update cache for %s: %s\n", output, err)
		}
	}

	c.logger.Printf("Converted %s to %s (%s)\n", input, output, mode)

	return nil
}
