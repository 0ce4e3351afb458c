package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/tilesource"
)

type infoCmd struct {
	*root
	fs     *flag.FlagSet
	source string
	out    io.Writer
}

func (c *infoCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseInfoCmd(args []string, r *root) (*infoCmd, error) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	c := &infoCmd{root: r.subcommand("info"), fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.source = fs.Arg(0)
	if c.source == "" {
		c.source = r.config.Source
	}
	if c.source == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *infoCmd) Run() error {
	src, err := tilesource.Open(c.source)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), infoTimeout)
	defer cancel()
	info, err := src.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.source, err)
	}
	p, err := pyramid.New(info.Levels)
	if err != nil {
		return fmt.Errorf("%s: %w", c.source, err)
	}

	pr := message.NewPrinter(language.English)
	pr.Fprintf(c.out, "%s (%s)\n", info.Title, info.ID)
	total := 0
	for i := 0; i < p.LevelCount(); i++ {
		l := p.Level(i)
		n := l.Columns() * l.Rows()
		total += n
		pr.Fprintf(c.out, "level %d: %d x %d px, %d x %d tiles\n", l.Index, l.Width, l.Height, l.Columns(), l.Rows())
	}
	pr.Fprintf(c.out, "%d levels, %d tiles\n", p.LevelCount(), total)
	return nil
}
