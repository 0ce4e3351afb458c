// Package viewport holds the navigation state of a deep zoom view and the
// pure geometry that maps it onto a drawing surface: scale, tile rectangles,
// culling, the zoom state machine and drag panning.
package viewport

import (
	"github.com/example/deepzoom/internal/pyramid"
)

// Surface is the size of the drawing area in device pixels.
type Surface struct {
	Width  int
	Height int
}

// Valid reports whether the surface can be rendered to.
func (s Surface) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Limits configures the zoom boundaries.
type Limits struct {
	// ScaleThreshold is the device-pixel density below which zooming in at
	// the coarsest level magnifies that level instead of switching levels.
	ScaleThreshold float64
	// DevicePixelScale is the ratio of device pixels to surface pixels.
	DevicePixelScale float64
	// MaxExtraFine caps magnification past the finest level.
	MaxExtraFine int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		ScaleThreshold:   1,
		DevicePixelScale: 1,
		MaxExtraFine:     3,
	}
}

// State is the viewport of one viewing session. CenterX and CenterY are in
// the active level's pixel space and stay within its extent.
type State struct {
	Level       int
	ExtraCoarse int
	ExtraFine   int
	CenterX     float64
	CenterY     float64
}

// NewState centres a fresh viewport on the coarsest level.
func NewState(p *pyramid.Pyramid) State {
	var s State
	s.Reset(p)
	return s
}

// Reset returns to the coarsest level with no extra zoom, centred.
func (s *State) Reset(p *pyramid.Pyramid) {
	c := p.Coarsest()
	*s = State{
		CenterX: float64(c.Width) / 2,
		CenterY: float64(c.Height) / 2,
	}
}

// Clamp keeps the centre inside level l.
func (s *State) Clamp(l pyramid.Level) {
	s.CenterX = clamp(s.CenterX, 0, float64(l.Width))
	s.CenterY = clamp(s.CenterY, 0, float64(l.Height))
}

// BaseCenter returns the centre expressed in coarsest-level coordinates.
func (s State) BaseCenter() (float64, float64) {
	div := float64(int(1) << s.Level)
	return s.CenterX / div, s.CenterY / div
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
