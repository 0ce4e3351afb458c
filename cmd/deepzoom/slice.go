package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/example/deepzoom/internal/slicer"
)

type sliceCmd struct {
	*root
	fs      *flag.FlagSet
	image   string
	out     string
	minDim  int
	quality int
	workers int
	quiet   bool
	stderr  io.Writer
}

func (c *sliceCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseSliceCmd(args []string, r *root) (*sliceCmd, error) {
	fs := flag.NewFlagSet("slice", flag.ExitOnError)
	c := &sliceCmd{root: r.subcommand("slice"), fs: fs, stderr: os.Stderr}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.out, "out", "", "directory to create the pyramid in (default: next to the image)")
	fs.IntVar(&c.minDim, "min-dim", slicer.MinImageDim, "stop halving once both sides are at most this size")
	fs.IntVar(&c.quality, "quality", 90, "JPEG quality of the tiles")
	fs.IntVar(&c.workers, "workers", 0, "tile encoders to run at once (default: number of CPUs)")
	fs.BoolVar(&c.quiet, "q", false, "do not report progress")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.image = fs.Arg(0)
	return c, nil
}

func (c *sliceCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := slicer.Options{MinDim: c.minDim, Quality: c.quality, Workers: c.workers}
	if !c.quiet {
		opts.Progress = func(p slicer.Progress) {
			if p.Done == p.Total {
				fmt.Fprintf(c.stderr, "level %d (%dx%d): %d tiles\n", p.Level, p.Width, p.Height, p.Total)
			}
		}
	}
	dir, p, err := slicer.SliceFile(ctx, c.image, c.out, opts)
	if err != nil {
		return fmt.Errorf("failed to slice %s: %w", c.image, err)
	}
	fmt.Fprintf(c.stderr, "wrote %d levels to %s\n", p.LevelCount(), dir)
	return nil
}
