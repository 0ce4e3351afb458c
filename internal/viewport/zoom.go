package viewport

import (
	"github.com/example/deepzoom/internal/pyramid"
)

// ZoomIn advances one step and reports whether the state changed.
//
// At the coarsest level, while the level is drawn below native pixel density,
// the step magnifies that level. At the finest level the step magnifies past
// native resolution up to lim.MaxExtraFine. Otherwise the next finer level
// becomes active and the centre is reprojected into its doubled space.
func (s *State) ZoomIn(p *pyramid.Pyramid, surf Surface, lim Limits) bool {
	last := p.LevelCount() - 1
	scale := EffectiveScale(*s, surf, p)
	switch {
	case s.Level == 0 && scale > 0 && scale*lim.DevicePixelScale < lim.ScaleThreshold:
		s.ExtraCoarse++
	case s.Level == last && s.ExtraFine < lim.MaxExtraFine:
		s.ExtraFine++
	case s.Level < last:
		s.Level++
		s.CenterX *= 2
		s.CenterY *= 2
		s.Clamp(p.Level(s.Level))
	default:
		return false
	}
	return true
}

// ZoomOut undoes one ZoomIn step and reports whether the state changed.
func (s *State) ZoomOut(p *pyramid.Pyramid) bool {
	last := p.LevelCount() - 1
	switch {
	case s.Level == 0 && s.ExtraCoarse > 0:
		s.ExtraCoarse--
	case s.Level == last && s.ExtraFine > 0:
		s.ExtraFine--
	case s.Level > 0:
		s.Level--
		s.CenterX /= 2
		s.CenterY /= 2
		s.Clamp(p.Level(s.Level))
	default:
		return false
	}
	return true
}
