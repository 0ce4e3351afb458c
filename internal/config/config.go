package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/deepzoom/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// View holds viewer settings.
type View struct {
	DevicePixelScale float64
	ScaleThreshold   float64
	MaxExtraFine     int
	CacheMB          int
	FetchWorkers     int
	Width            int
	Height           int
}

// Serve holds tile server settings.
type Serve struct {
	Addr    string
	LogFile string
}

// Config holds the application configuration.
type Config struct {
	Theme       string
	Source      string
	SnapshotDir string
	View        View
	Serve       Serve
	Notify      Notify
	Themes      map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		View: View{
			DevicePixelScale: 1,
			ScaleThreshold:   1,
			MaxExtraFine:     3,
			CacheMB:          256,
			FetchWorkers:     6,
			Width:            1024,
			Height:           768,
		},
		Serve: Serve{
			Addr: ":3000",
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.Source != "" {
		fmt.Fprintf(&sb, "source = %s\n", c.Source)
	}
	if c.SnapshotDir != "" {
		fmt.Fprintf(&sb, "snapshot_dir = %s\n", c.SnapshotDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[view]\n")
	fmt.Fprintf(&sb, "device_pixel_scale = %g\n", c.View.DevicePixelScale)
	fmt.Fprintf(&sb, "scale_threshold = %g\n", c.View.ScaleThreshold)
	fmt.Fprintf(&sb, "max_extra_fine = %d\n", c.View.MaxExtraFine)
	fmt.Fprintf(&sb, "cache_mb = %d\n", c.View.CacheMB)
	fmt.Fprintf(&sb, "fetch_workers = %d\n", c.View.FetchWorkers)
	fmt.Fprintf(&sb, "width = %d\n", c.View.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.View.Height)
	sb.WriteString("\n")

	sb.WriteString("[serve]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Serve.Addr)
	if c.Serve.LogFile != "" {
		fmt.Fprintf(&sb, "log_file = %s\n", c.Serve.LogFile)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
