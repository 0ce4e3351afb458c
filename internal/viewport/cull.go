package viewport

import (
	"github.com/example/deepzoom/internal/pyramid"
)

// VisibleRegion returns the part of the active level covered by the surface.
func VisibleRegion(s State, scale float64, surf Surface) Rect {
	halfW := float64(surf.Width) / (2 * scale)
	halfH := float64(surf.Height) / (2 * scale)
	return Rect{
		Left:   s.CenterX - halfW,
		Top:    s.CenterY - halfH,
		Width:  2 * halfW,
		Height: 2 * halfH,
	}
}

// VisibleTiles returns the keys of level l whose overlap-expanded rectangle
// intersects the visible region, row-major. The expansion is not clamped
// here so edge tiles are culled on the same footprint as interior ones.
func VisibleTiles(s State, scale float64, surf Surface, l pyramid.Level) []pyramid.TileKey {
	if scale <= 0 || !surf.Valid() {
		return nil
	}
	region := VisibleRegion(s, scale, surf)
	var keys []pyramid.TileKey
	for top := 0; top < l.Height; top += pyramid.TileStride {
		for left := 0; left < l.Width; left += pyramid.TileStride {
			tile := Rect{
				Left:   float64(left - pyramid.TileOverlap),
				Top:    float64(top - pyramid.TileOverlap),
				Width:  pyramid.TileSizeWithOverlap,
				Height: pyramid.TileSizeWithOverlap,
			}
			if tile.Overlaps(region) {
				keys = append(keys, pyramid.TileKey{Level: l.Index, Left: left, Top: top})
			}
		}
	}
	return keys
}
