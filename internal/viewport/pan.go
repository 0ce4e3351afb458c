package viewport

import (
	"github.com/example/deepzoom/internal/pyramid"
)

// Drag tracks an in-progress pointer or touch drag.
type Drag struct {
	Active bool
	LastX  float64
	LastY  float64
}

// Start records the pointer position and begins a drag.
func (d *Drag) Start(x, y float64) {
	d.Active = true
	d.LastX = x
	d.LastY = y
}

// Move pans s by the pointer delta since the last event. Dragging right moves
// the visible window left. It reports whether a drag was in progress.
func (d *Drag) Move(x, y float64, s *State, scale float64, l pyramid.Level) bool {
	if !d.Active {
		return false
	}
	if scale > 0 {
		s.CenterX -= (x - d.LastX) / scale
		s.CenterY -= (y - d.LastY) / scale
		s.Clamp(l)
	}
	d.LastX = x
	d.LastY = y
	return true
}

// End finishes the drag and reports whether one was in progress.
func (d *Drag) End() bool {
	was := d.Active
	*d = Drag{}
	return was
}

// Pan moves the centre by a surface-space delta without a drag, as used for
// keyboard scrolling.
func Pan(s *State, dx, dy, scale float64, l pyramid.Level) {
	if scale <= 0 {
		return
	}
	s.CenterX += dx / scale
	s.CenterY += dy / scale
	s.Clamp(l)
}
