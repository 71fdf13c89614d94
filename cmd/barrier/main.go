package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/barrier"
	"github.com/bodgit/barrier/cache"
	"github.com/bodgit/barrier/header"
	"github.com/bodgit/barrier/palette"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newConverter(c *cli.Context) (*barrier.Converter, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	if c.String("cache") == "" {
		return barrier.New(nil, logger), func() {}, nil
	}

	db, err := cache.New(c.String("cache"))
	if err != nil {
		return nil, nil, err
	}

	return barrier.New(db, logger), func() { db.Close() }, nil
}

func options(c *cli.Context, format barrier.Format) (barrier.Options, error) {
	p, err := palette.ByName(c.String("palette"))
	if err != nil {
		return barrier.Options{}, err
	}

	o := barrier.DefaultOptions(p, format)
	if format == barrier.Header {
		o.Width = c.Int("width")
		o.Height = c.Int("height")
		o.CellSize = c.Int("cell-size")
		o.SkipSizeCheck = c.Bool("no-size-check")
	}

	return o, nil
}

func paletteFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "palette",
		Aliases: []string{"p"},
		Value:   value,
		Usage:   "palette to classify with (" + strings.Join(palette.Names(), ", ") + ")",
	}
}

var headerFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "width",
		Value: header.DefaultWidth,
		Usage: "declared screen width",
	},
	&cli.IntFlag{
		Name:  "height",
		Value: header.DefaultHeight,
		Usage: "declared screen height",
	},
	&cli.IntFlag{
		Name:  "cell-size",
		Value: header.DefaultCellSize,
		Usage: "declared cell size",
	},
	&cli.BoolFlag{
		Name:  "no-size-check",
		Usage: "allow images that don't match the declared screen size",
	},
}

func convert(format barrier.Format) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			return cli.NewExitError(fmt.Sprintf("Usage: %s %s INPUT OUTPUT", c.App.Name, c.Command.Name), 1)
		}

		o, err := options(c, format)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		b, closer, err := newConverter(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closer()

		output := c.Args().Get(1)
		if err := b.Convert(c.Args().Get(0), output, o); err != nil {
			return cli.NewExitError(err, 1)
		}

		fmt.Fprintf(c.App.Writer, "Conversion complete. Output saved to %s\n", output)

		return nil
	}
}

func batch(c *cli.Context) error {
	o, err := options(c, barrier.Header)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	b, closer, err := newConverter(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closer()

	results, err := b.Batch(c.String("input"), c.String("output"), c.Int("workers"), o)
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(c.App.Writer, "Conversion complete. Output saved to %s\n", r.Output)
		}
	}

	var be *barrier.BatchError
	switch {
	case errors.As(err, &be):
		for _, f := range be.Failures {
			fmt.Fprintf(c.App.ErrWriter, "Error: %s\n", f.Err)
		}
		return cli.NewExitError(fmt.Sprintf("%d of %d stages failed to convert", len(be.Failures), len(results)), 1)
	case err != nil:
		return cli.NewExitError(err, 1)
	}

	return nil
}

// newApp builds the CLI. The batch directories default to paths relative to
// base.
func newApp(base string) *cli.App {
	app := cli.NewApp()

	app.Name = "barrier"
	app.Usage = "Convert stage barrier images into grids of terrain codes"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "cache",
			EnvVars: []string{"BARRIER_CACHE"},
			Usage:   "path to conversion cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert an image to a C++ header",
			ArgsUsage: "INPUT OUTPUT",
			Flags:     append([]cli.Flag{paletteFlag(palette.Two.Name)}, headerFlags...),
			Action:    convert(barrier.Header),
		},
		{
			Name:      "json",
			Usage:     "Convert an image to a JSON array",
			ArgsUsage: "INPUT OUTPUT",
			Flags:     []cli.Flag{paletteFlag(palette.Two.Name)},
			Action:    convert(barrier.JSON),
		},
		{
			Name:        "batch",
			Usage:       "Convert every stage-*_barriers.png image to a C++ header",
			Description: "Each stage-NAME_barriers.png in the input directory is written to stage-NAME.h in the output directory.",
			Flags: append([]cli.Flag{
				paletteFlag(palette.Four.Name),
				&cli.StringFlag{
					Name:  "input",
					Value: filepath.Join(base, "..", "backgrounds"),
					Usage: "directory containing barrier images",
				},
				&cli.StringFlag{
					Name:  "output",
					Value: filepath.Join(base, "..", "source", "stages"),
					Usage: "directory to write headers to",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of images to convert concurrently",
				},
			}, headerFlags...),
			Action: batch,
		},
	}

	return app
}

func main() {
	exe, err := os.Executable()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(filepath.Dir(exe)).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
