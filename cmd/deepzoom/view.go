package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/example/deepzoom/internal/appstate"
	"github.com/example/deepzoom/internal/tilesource"
	"github.com/example/deepzoom/internal/viewport"
)

// runViewer blocks until the window closes. Replaced in tests.
var runViewer = func(a *appstate.AppState) { a.Run() }

// infoTimeout bounds reading the pyramid description before a window opens.
const infoTimeout = 30 * time.Second

type viewCmd struct {
	*root
	fs          *flag.FlagSet
	source      string
	width       int
	height      int
	snapshotDir string
}

func (c *viewCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	c := &viewCmd{root: r.subcommand("view"), fs: fs}
	fs.Usage = usageFunc(c)
	cfg := r.config
	fs.IntVar(&c.width, "width", cfg.View.Width, "initial window width")
	fs.IntVar(&c.height, "height", cfg.View.Height, "initial window height")
	fs.StringVar(&c.snapshotDir, "snapshot-dir", cfg.SnapshotDir, "directory for saved snapshots")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.source = fs.Arg(0)
	if c.source == "" {
		c.source = cfg.Source
	}
	if c.source == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *viewCmd) Run() error {
	src, err := tilesource.Open(c.source)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), infoTimeout)
	info, err := src.Info(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.source, err)
	}

	v := c.config.View
	st, err := appstate.New(src, info,
		appstate.WithWindowSize(c.width, c.height),
		appstate.WithTheme(c.activeTheme),
		appstate.WithLimits(viewport.Limits{
			ScaleThreshold:   v.ScaleThreshold,
			DevicePixelScale: v.DevicePixelScale,
			MaxExtraFine:     v.MaxExtraFine,
		}),
		appstate.WithLoaderOptions(tilesource.LoaderOptions{
			CacheBytes: int64(v.CacheMB) << 20,
			Workers:    v.FetchWorkers,
		}),
		appstate.WithSnapshotDir(c.snapshotDir),
		appstate.WithNotifier(c.notifier),
	)
	if err != nil {
		return err
	}
	runViewer(st)
	return nil
}
