// Package tilesource loads pyramid descriptions and tile images from a
// deepzoom directory or a deepzoom tile server.
package tilesource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/deepzoom/internal/pyramid"
)

// ErrNotFound reports that a tile does not exist in the source.
var ErrNotFound = errors.New("tile not found")

// Info describes an image available from a source. It is also the JSON body
// of the server's /info endpoint.
type Info struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Levels []pyramid.Size `json:"levels"`
}

// Source yields encoded tile bytes.
type Source interface {
	Info(ctx context.Context) (Info, error)
	Tile(ctx context.Context, key pyramid.TileKey) ([]byte, error)
}

// Open returns an HTTP source for http(s) URLs and a directory source
// otherwise.
func Open(location string) (Source, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTP(location, nil), nil
	}
	fi, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("open source: %s is not a directory", location)
	}
	return NewDir(location), nil
}

// Dir reads a pyramid written by the slicer: info.json plus
// {level}/{left}_{top}.jpg files.
type Dir struct {
	Path string
}

// NewDir returns a source rooted at path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// Info reads info.json. The directory name doubles as id and title.
func (d *Dir) Info(ctx context.Context) (Info, error) {
	p, err := pyramid.Load(d.Path)
	if err != nil {
		return Info{}, err
	}
	name := filepath.Base(filepath.Clean(d.Path))
	return Info{ID: name, Title: name, Levels: p.Sizes()}, nil
}

// Tile reads one tile file.
func (d *Dir) Tile(ctx context.Context, key pyramid.TileKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(d.Path, filepath.FromSlash(key.TilePath())))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read tile %s: %w", key, err)
	}
	return b, nil
}
