package viewport

import (
	"math"

	"github.com/example/deepzoom/internal/pyramid"
)

// Rect is an axis-aligned rectangle in floating point surface or level space.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Overlaps reports whether r and o share any area. Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left < o.Right() && o.Left < r.Right() &&
		r.Top < o.Bottom() && o.Top < r.Bottom()
}

// FitScale scales a level so it fits the surface, preserving aspect ratio.
// A relatively taller image is constrained by height, otherwise by width.
func FitScale(surfaceW, surfaceH, levelW, levelH float64) float64 {
	if levelW/levelH < surfaceW/surfaceH {
		return surfaceH / levelH
	}
	return surfaceW / levelW
}

// EffectiveScale returns the level-to-surface scale for s. The fit is taken
// against the coarsest level; each finer level doubles its own coordinates,
// so the scale only changes with the extra zoom steps. It returns 0 for a
// degenerate surface.
func EffectiveScale(s State, surf Surface, p *pyramid.Pyramid) float64 {
	if !surf.Valid() {
		return 0
	}
	c := p.Coarsest()
	fit := FitScale(float64(surf.Width), float64(surf.Height), float64(c.Width), float64(c.Height))
	return fit * math.Ldexp(1, s.ExtraCoarse+s.ExtraFine)
}

// TileBounds returns the tile's overlap-expanded rectangle in level space,
// clamped to the level extent.
func TileBounds(left, top int, l pyramid.Level) Rect {
	x0 := left - pyramid.TileOverlap
	y0 := top - pyramid.TileOverlap
	x1 := min(x0+pyramid.TileSizeWithOverlap, l.Width)
	y1 := min(y0+pyramid.TileSizeWithOverlap, l.Height)
	x0 = max(0, x0)
	y0 = max(0, y0)
	return Rect{Left: float64(x0), Top: float64(y0), Width: float64(x1 - x0), Height: float64(y1 - y0)}
}

// ToSurface maps a level-space rectangle onto the surface.
func ToSurface(r Rect, s State, scale float64, surf Surface) Rect {
	tx := -s.CenterX*scale + float64(surf.Width)/2
	ty := -s.CenterY*scale + float64(surf.Height)/2
	return Rect{
		Left:   r.Left*scale + tx,
		Top:    r.Top*scale + ty,
		Width:  r.Width * scale,
		Height: r.Height * scale,
	}
}

// TileScreenRect returns where the tile at (left, top) of level l is drawn.
func TileScreenRect(left, top int, l pyramid.Level, s State, scale float64, surf Surface) Rect {
	return ToSurface(TileBounds(left, top, l), s, scale, surf)
}

// SurfaceToLevel maps a surface point into level space.
func SurfaceToLevel(x, y float64, s State, scale float64, surf Surface) (float64, float64) {
	return (x-float64(surf.Width)/2)/scale + s.CenterX, (y-float64(surf.Height)/2)/scale + s.CenterY
}
