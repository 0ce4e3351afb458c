package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/deepzoom/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if themeName, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		sep := "="
		if !strings.Contains(line, "=") {
			sep = ":"
		}
		key, value, ok := strings.Cut(line, sep)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = currentTheme.Set(key, value)
		case currentSection == "view":
			err = setViewField(&cfg.View, key, value)
		case currentSection == "serve":
			setServeField(&cfg.Serve, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "":
			setRootField(cfg, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "source":
		cfg.Source = value
	case "snapshot_dir":
		cfg.SnapshotDir = value
	}
}

func setViewField(v *View, key, value string) error {
	switch strings.ToLower(key) {
	case "device_pixel_scale":
		return setPositiveFloat(&v.DevicePixelScale, key, value)
	case "scale_threshold":
		return setPositiveFloat(&v.ScaleThreshold, key, value)
	case "max_extra_fine":
		return setInt(&v.MaxExtraFine, key, value, 0)
	case "cache_mb":
		return setInt(&v.CacheMB, key, value, 1)
	case "fetch_workers":
		return setInt(&v.FetchWorkers, key, value, 1)
	case "width":
		return setInt(&v.Width, key, value, 1)
	case "height":
		return setInt(&v.Height, key, value, 1)
	}
	return nil
}

func setServeField(s *Serve, key, value string) {
	switch strings.ToLower(key) {
	case "addr":
		s.Addr = value
	case "log_file":
		s.LogFile = value
	}
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setPositiveFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	if f <= 0 {
		return fmt.Errorf("key %s must be positive, got %v", key, f)
	}
	*dst = f
	return nil
}

func setInt(dst *int, key, value string, min int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if n < min {
		return fmt.Errorf("key %s must be at least %d, got %d", key, min, n)
	}
	*dst = n
	return nil
}
