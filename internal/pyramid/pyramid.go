// Package pyramid describes a deep zoom image: an ordered set of resolution
// levels, each sliced into fixed-size overlapping tiles.
package pyramid

import (
	"errors"
	"fmt"
)

const (
	// TileStride is the distance between the origins of adjacent tiles.
	TileStride = 508
	// TileOverlap is the extra margin each tile carries on every edge.
	TileOverlap = 2
	// TileSizeWithOverlap is the largest extent of a sliced tile.
	TileSizeWithOverlap = TileStride + 2*TileOverlap
)

// ErrNoLevels is returned when a pyramid description lists no levels.
var ErrNoLevels = errors.New("pyramid has no levels")

// Size is the pixel extent of one level as stored in info.json.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Level is one resolution layer. Index 0 is the coarsest.
type Level struct {
	Index  int
	Width  int
	Height int
}

// Columns reports how many tiles span the level horizontally.
func (l Level) Columns() int { return (l.Width + TileStride - 1) / TileStride }

// Rows reports how many tiles span the level vertically.
func (l Level) Rows() int { return (l.Height + TileStride - 1) / TileStride }

// Pyramid is immutable once created. Each level is expected to be exactly
// twice the size of the previous one; that is a property of the sliced data
// and is not checked here.
type Pyramid struct {
	levels []Level
}

// New builds a pyramid from sizes ordered coarsest first.
func New(sizes []Size) (*Pyramid, error) {
	if len(sizes) == 0 {
		return nil, ErrNoLevels
	}
	levels := make([]Level, len(sizes))
	for i, s := range sizes {
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("level %d: invalid size %dx%d", i, s.Width, s.Height)
		}
		levels[i] = Level{Index: i, Width: s.Width, Height: s.Height}
	}
	return &Pyramid{levels: levels}, nil
}

// LevelCount returns the number of levels.
func (p *Pyramid) LevelCount() int { return len(p.levels) }

// Level returns level i. An out-of-range index is a programming error.
func (p *Pyramid) Level(i int) Level {
	if i < 0 || i >= len(p.levels) {
		panic(fmt.Sprintf("pyramid: level %d out of range [0,%d)", i, len(p.levels)))
	}
	return p.levels[i]
}

// Coarsest returns level 0.
func (p *Pyramid) Coarsest() Level { return p.levels[0] }

// Finest returns the highest resolution level.
func (p *Pyramid) Finest() Level { return p.levels[len(p.levels)-1] }

// Sizes returns the level sizes, coarsest first.
func (p *Pyramid) Sizes() []Size {
	out := make([]Size, len(p.levels))
	for i, l := range p.levels {
		out[i] = Size{Width: l.Width, Height: l.Height}
	}
	return out
}
