// Package session ties the viewport state machine, the visibility culler and
// the tile manager together behind the commands a host window issues.
//
// A Session is confined to one goroutine. Hosts deliver tile fetch results
// back onto that goroutine and call TileLoaded.
package session

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/tiles"
	"github.com/example/deepzoom/internal/viewport"
)

// TileView is what a render surface needs to draw one tile.
type TileView struct {
	Key     pyramid.TileKey
	Rect    viewport.Rect
	Visible bool
	Image   image.Image
}

// Session is the viewing state of one image.
type Session struct {
	imageID string
	pyr     *pyramid.Pyramid
	limits  viewport.Limits

	state   viewport.State
	drag    viewport.Drag
	surface viewport.Surface
	scale   float64

	tiles  *tiles.Manager
	logger *slog.Logger
	passes int
}

// New starts a session centred on the coarsest level. Nothing is rendered
// until the host reports a surface size.
func New(imageID string, p *pyramid.Pyramid, f tiles.Fetcher, lim viewport.Limits) *Session {
	logger := Logger().With("image", imageID)
	return &Session{
		imageID: imageID,
		pyr:     p,
		limits:  lim,
		state:   viewport.NewState(p),
		tiles:   tiles.NewManager(f, logger),
		logger:  logger,
	}
}

// ImageID returns the identifier passed to New.
func (s *Session) ImageID() string { return s.imageID }

// Pyramid returns the image pyramid.
func (s *Session) Pyramid() *pyramid.Pyramid { return s.pyr }

// State returns a copy of the viewport state.
func (s *Session) State() viewport.State { return s.state }

// Surface returns the current surface size.
func (s *Session) Surface() viewport.Surface { return s.surface }

// Scale returns the effective scale computed by the last render pass.
func (s *Session) Scale() float64 { return s.scale }

// Passes returns the number of render passes performed.
func (s *Session) Passes() int { return s.passes }

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool { return s.drag.Active }

// Location describes the view as "level cx cy".
func (s *Session) Location() string {
	return fmt.Sprintf("%d %.1f %.1f", s.state.Level, s.state.CenterX, s.state.CenterY)
}

// ParseLocation parses text produced by Location.
func ParseLocation(text string) (level int, cx, cy float64, err error) {
	if _, err := fmt.Sscanf(strings.TrimSpace(text), "%d %g %g", &level, &cx, &cy); err != nil {
		return 0, 0, 0, fmt.Errorf("parse location %q: %w", text, err)
	}
	return level, cx, cy, nil
}

// GoTo jumps to a location on the given level, dropping any extra zoom. The
// level is clamped to the pyramid and the centre to the level.
func (s *Session) GoTo(level int, cx, cy float64) bool {
	level = max(0, min(level, s.pyr.LevelCount()-1))
	s.state = viewport.State{Level: level, CenterX: cx, CenterY: cy}
	s.state.Clamp(s.activeLevel())
	return s.Render()
}

// ZoomIn advances one zoom step and renders if anything changed.
func (s *Session) ZoomIn() bool {
	if !s.state.ZoomIn(s.pyr, s.surface, s.limits) {
		return false
	}
	return s.Render()
}

// ZoomOut retreats one zoom step and renders if anything changed.
func (s *Session) ZoomOut() bool {
	if !s.state.ZoomOut(s.pyr) {
		return false
	}
	return s.Render()
}

// ResetZoom returns to the initial fitted view.
func (s *Session) ResetZoom() bool {
	s.state.Reset(s.pyr)
	return s.Render()
}

// OnSurfaceResize records the new surface size. Level, counters and centre
// are kept.
func (s *Session) OnSurfaceResize(width, height int) bool {
	s.surface = viewport.Surface{Width: width, Height: height}
	return s.Render()
}

// OnDragStart begins a drag at the given surface point.
func (s *Session) OnDragStart(x, y float64) {
	s.drag.Start(x, y)
}

// OnDragMove pans by the pointer delta when a drag is in progress.
func (s *Session) OnDragMove(x, y float64) bool {
	if !s.drag.Move(x, y, &s.state, s.currentScale(), s.activeLevel()) {
		return false
	}
	return s.Render()
}

// OnDragEnd finishes the drag and runs one final render pass so the tile
// set matches where the view came to rest.
func (s *Session) OnDragEnd() bool {
	if !s.drag.End() {
		return false
	}
	return s.Render()
}

// PanBy moves the view by a surface-space delta, as if the content were
// dragged by (-dx, -dy).
func (s *Session) PanBy(dx, dy float64) bool {
	before := s.state
	viewport.Pan(&s.state, dx, dy, s.currentScale(), s.activeLevel())
	if s.state == before {
		return false
	}
	return s.Render()
}

// TileLoaded applies a fetch result and reports whether a tile became
// visible.
func (s *Session) TileLoaded(req tiles.Request, img image.Image, err error) bool {
	return s.tiles.Complete(req, img, err)
}

// Render recomputes the scale and the visible tile set and reconciles the
// retained elements. It is idempotent and does nothing for a degenerate
// surface.
func (s *Session) Render() bool {
	if !s.surface.Valid() {
		s.logger.Debug("render skipped", "width", s.surface.Width, "height", s.surface.Height)
		return false
	}
	s.scale = viewport.EffectiveScale(s.state, s.surface, s.pyr)
	l := s.activeLevel()
	keys := viewport.VisibleTiles(s.state, s.scale, s.surface, l)
	created, evicted := s.tiles.Reconcile(l.Index, keys, func(k pyramid.TileKey) viewport.Rect {
		return viewport.TileScreenRect(k.Left, k.Top, l, s.state, s.scale, s.surface)
	})
	s.passes++
	s.logger.Debug("render",
		"level", l.Index,
		"scale", s.scale,
		"visible", len(keys),
		"created", created,
		"evicted", evicted,
	)
	return true
}

// Tiles returns the live tile elements in row-major order.
func (s *Session) Tiles() []TileView {
	els := s.tiles.Elements()
	out := make([]TileView, len(els))
	for i, el := range els {
		out[i] = TileView{
			Key:     el.Key,
			Rect:    el.Rect,
			Visible: el.State == tiles.Visible,
			Image:   el.Image,
		}
	}
	return out
}

// ImageRect returns where the whole active level lands on the surface.
func (s *Session) ImageRect() viewport.Rect {
	l := s.activeLevel()
	full := viewport.Rect{Width: float64(l.Width), Height: float64(l.Height)}
	return viewport.ToSurface(full, s.state, s.currentScale(), s.surface)
}

func (s *Session) activeLevel() pyramid.Level { return s.pyr.Level(s.state.Level) }

func (s *Session) currentScale() float64 {
	return viewport.EffectiveScale(s.state, s.surface, s.pyr)
}
