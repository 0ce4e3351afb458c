package pyramid

import (
	"fmt"
	"strconv"
	"strings"
)

// TileKey identifies one tile of one level. Left and Top are multiples of
// TileStride in the level's pixel grid.
type TileKey struct {
	Level int
	Left  int
	Top   int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d_%d", k.Level, k.Left, k.Top)
}

// TileName returns the file name of the tile inside its level directory.
func (k TileKey) TileName() string {
	return fmt.Sprintf("%d_%d.jpg", k.Left, k.Top)
}

// TilePath returns the tile location relative to the pyramid root.
func (k TileKey) TilePath() string {
	return strconv.Itoa(k.Level) + "/" + k.TileName()
}

// TileURLPath returns the server path that serves the tile for imageID.
func TileURLPath(imageID string, k TileKey) string {
	return "/tile/" + imageID + "/" + k.TilePath()
}

// ParseTileName parses a "{left}_{top}.jpg" file name.
func ParseTileName(name string) (left, top int, err error) {
	base, ok := strings.CutSuffix(name, ".jpg")
	if !ok {
		return 0, 0, fmt.Errorf("tile %q: missing .jpg suffix", name)
	}
	l, t, ok := strings.Cut(base, "_")
	if !ok {
		return 0, 0, fmt.Errorf("tile %q: expected left_top", name)
	}
	left, err = strconv.Atoi(l)
	if err != nil {
		return 0, 0, fmt.Errorf("tile %q: left: %w", name, err)
	}
	top, err = strconv.Atoi(t)
	if err != nil {
		return 0, 0, fmt.Errorf("tile %q: top: %w", name, err)
	}
	if left < 0 || top < 0 || left%TileStride != 0 || top%TileStride != 0 {
		return 0, 0, fmt.Errorf("tile %q: offsets must be non-negative multiples of %d", name, TileStride)
	}
	return left, top, nil
}

// Contains reports whether k addresses a tile that exists in p.
func (p *Pyramid) Contains(k TileKey) bool {
	if k.Level < 0 || k.Level >= len(p.levels) {
		return false
	}
	l := p.levels[k.Level]
	return k.Left >= 0 && k.Top >= 0 && k.Left < l.Width && k.Top < l.Height &&
		k.Left%TileStride == 0 && k.Top%TileStride == 0
}

// Tiles lists every tile key of level l, row-major.
func Tiles(l Level) []TileKey {
	keys := make([]TileKey, 0, l.Columns()*l.Rows())
	for top := 0; top < l.Height; top += TileStride {
		for left := 0; left < l.Width; left += TileStride {
			keys = append(keys, TileKey{Level: l.Index, Left: left, Top: top})
		}
	}
	return keys
}
