package barrier

import (
	"bytes"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/barrier/cache"
	"github.com/bodgit/barrier/grid"
	"github.com/bodgit/barrier/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	green = color.NRGBA{0, 255, 0, 255}
	grey  = color.NRGBA{10, 10, 10, 255}
)

func discard() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func writePNG(t *testing.T, file string, rows [][]color.NRGBA) {
	t.Helper()

	m := image.NewNRGBA(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, c := range row {
			m.SetNRGBA(x, y, c)
		}
	}

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

// screen returns a DS-sized image with a white border and fill inside
func screen(fill color.NRGBA) [][]color.NRGBA {
	rows := make([][]color.NRGBA, 192)
	for y := range rows {
		rows[y] = make([]color.NRGBA, 256)
		for x := range rows[y] {
			switch {
			case x == 0 || y == 0 || x == 255 || y == 191:
				rows[y][x] = white
			case x == 128 && y == 96:
				rows[y][x] = fill
			default:
				rows[y][x] = black
			}
		}
	}
	return rows
}

func TestConvertJSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.json")

	writePNG(t, input, [][]color.NRGBA{
		{white, black},
		{black, white},
	})

	c := New(nil, discard())
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[[1,0],[0,1]]", string(b))

	g, err := grid.ReadJSON(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, grid.Grid{{1, 0}, {0, 1}}, g)
}

func TestConvertBMP(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bmp")
	output := filepath.Join(dir, "out.json")

	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	m.SetNRGBA(0, 0, white)
	m.SetNRGBA(1, 0, black)
	m.SetNRGBA(0, 1, black)
	m.SetNRGBA(1, 1, white)

	f, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, m))
	require.NoError(t, f.Close())

	c := New(nil, discard())
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[[1,0],[0,1]]", string(b))
}

func TestConvertJSONFour(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.json")

	writePNG(t, input, [][]color.NRGBA{
		{black, white, blue, green},
	})

	c := New(nil, discard())
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Four, JSON)))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[[0,1,2,3]]", string(b))
}

func TestConvertHeader(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "stage-2_barriers.png")
	output := filepath.Join(dir, "stage-2.h")

	writePNG(t, input, screen(green))

	c := New(nil, discard())
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Four, Header)))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, "#ifndef STAGE_2_H\n")
	assert.Contains(t, s, "const int STAGE_2_WIDTH = 256;\n")
	assert.Contains(t, s, "const int STAGE_2_HEIGHT = 192;\n")
	assert.Contains(t, s, "const int STAGE_2_CELL_SIZE = 16;\n")
	assert.Contains(t, s, "std::vector<Tank *> *CREATE_STAGE_2_TANKS(Stage *stage);\n")
	assert.Contains(t, s, "const int STAGE_2_BARRIERS[SCREEN_HEIGHT][SCREEN_WIDTH] = {\n")
	assert.Contains(t, s, ", 3, ")
	assert.Equal(t, 192, bytes.Count(b, []byte("    { ")))
}

func TestConvertHeaderWrongSize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "small.h")

	writePNG(t, input, [][]color.NRGBA{
		{white, black},
		{black, white},
	})

	c := New(nil, discard())
	err := c.Convert(input, output, DefaultOptions(palette.Two, Header))
	assert.True(t, errors.Is(err, ErrWrongSize))
	assert.NoFileExists(t, output)

	o := DefaultOptions(palette.Two, Header)
	o.SkipSizeCheck = true
	require.NoError(t, c.Convert(input, output, o))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(b), "    { 1, 0 },\n    { 0, 1 }\n};\n")
}

func TestConvertUnknownColor(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.json")

	writePNG(t, input, [][]color.NRGBA{
		{white, black},
		{black, grey},
	})

	c := New(nil, discard())
	err := c.Convert(input, output, DefaultOptions(palette.Two, JSON))

	var ce *grid.ColorError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, grey, ce.Color)
	assert.NoFileExists(t, output)

	// An existing artifact is left alone
	require.NoError(t, ioutil.WriteFile(output, []byte("previous"), 0644))
	assert.Error(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(b))

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestConvertIdempotent(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "stage-1_barriers.png")

	writePNG(t, input, screen(white))

	c := New(nil, discard())
	for _, format := range []Format{Header, JSON} {
		first := filepath.Join(dir, "first."+format.String())
		second := filepath.Join(dir, "second."+format.String())

		require.NoError(t, c.Convert(input, first, DefaultOptions(palette.Two, format)))
		require.NoError(t, c.Convert(input, second, DefaultOptions(palette.Two, format)))

		b1, err := ioutil.ReadFile(first)
		require.NoError(t, err)
		b2, err := ioutil.ReadFile(second)
		require.NoError(t, err)

		if format == Header {
			// Only the symbolic name differs
			b1 = bytes.ReplaceAll(b1, []byte("FIRST"), []byte("SECOND"))
		}
		assert.Equal(t, b1, b2, format.String())

		require.NoError(t, c.Convert(input, first, DefaultOptions(palette.Two, format)))
		b3, err := ioutil.ReadFile(first)
		require.NoError(t, err)
		if format == Header {
			b3 = bytes.ReplaceAll(b3, []byte("FIRST"), []byte("SECOND"))
		}
		assert.Equal(t, b1, b3, format.String())
	}
}

func TestConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	c := New(nil, discard())
	err := c.Convert(filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.json"), DefaultOptions(palette.Two, JSON))
	assert.True(t, os.IsNotExist(err))
}

func TestConvertNotAnImage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(input, []byte("not an image"), 0644))

	c := New(nil, discard())
	err := c.Convert(input, filepath.Join(dir, "out.json"), DefaultOptions(palette.Two, JSON))
	assert.True(t, errors.Is(err, image.ErrFormat))
}

func TestConvertCache(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.json")

	writePNG(t, input, [][]color.NRGBA{
		{white, black},
	})

	db, err := cache.New(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	logs := new(bytes.Buffer)
	c := New(db, log.New(logs, "", 0))

	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))
	assert.Contains(t, logs.String(), "Converted")
	assert.NotContains(t, logs.String(), "up to date")

	logs.Reset()
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))
	assert.Contains(t, logs.String(), "up to date")

	// A different palette is a different mode
	logs.Reset()
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Four, JSON)))
	assert.Contains(t, logs.String(), "Converted")

	// Changing the input invalidates the entry
	writePNG(t, input, [][]color.NRGBA{
		{black, white},
	})
	logs.Reset()
	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Four, JSON)))
	assert.Contains(t, logs.String(), "Converted")

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[[0,1]]", string(b))
}

func TestConvertCacheWriteFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.json")
	file := filepath.Join(dir, "cache.db")

	writePNG(t, input, [][]color.NRGBA{
		{white, black},
	})

	db, err := cache.New(file)
	require.NoError(t, err)
	defer db.Close()

	// Reads still work but every write is refused
	raw, err := sql.Open("sqlite3", file)
	require.NoError(t, err)
	_, err = raw.Exec("CREATE TRIGGER refuse BEFORE INSERT ON artifact BEGIN SELECT RAISE(ABORT, 'refused'); END")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	logs := new(bytes.Buffer)
	c := New(db, log.New(logs, "", 0))

	require.NoError(t, c.Convert(input, output, DefaultOptions(palette.Two, JSON)))
	assert.Contains(t, logs.String(), "Failed to update cache")

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[[1,0]]", string(b))
}

func TestRender(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, white)
	m.SetNRGBA(1, 0, black)

	o := DefaultOptions(palette.Two, Header)
	o.Width, o.Height = 2, 1

	b, err := Render(m, "TEST", o)
	require.NoError(t, err)
	assert.Contains(t, string(b), "const int TEST_WIDTH = 2;\n")
	assert.Contains(t, string(b), "    { 1, 0 }\n")

	_, err = Render(m, "TEST", Options{Palette: palette.Two, Format: Format(7)})
	assert.Error(t, err)
}
