package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader finds and reads the configuration file.
type Loader struct {
	Version      string // "dev" also searches the working directory
	OverridePath string // from DEEPZOOM_CONFIG or set at build time
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Candidates lists the paths searched for a config file, highest priority
// first.
func (l *Loader) Candidates() []string {
	var paths []string
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".deepzoomrc"))
		}
	}
	if p := DefaultPath(); p != "" {
		paths = append(paths, p)
	}
	return paths
}

// GetConfigPath returns the first candidate that exists, or "".
func (l *Loader) GetConfigPath() string {
	for _, p := range l.Candidates() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Load parses the config file, or returns defaults when there is none.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is deepzoom/config.rc under $XDG_CONFIG_HOME, or under
// ~/.config when that is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "deepzoom", "config.rc")
}

// Save writes cfg to path in RC format. The file is replaced atomically so
// a failed write leaves the previous config intact.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.rc")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	_, err = tmp.WriteString(cfg.String())
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
