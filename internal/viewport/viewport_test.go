package viewport

import (
	"math"
	"math/rand"
	"testing"

	"github.com/example/deepzoom/internal/pyramid"
)

func mustPyramid(t *testing.T, sizes ...pyramid.Size) *pyramid.Pyramid {
	t.Helper()
	p, err := pyramid.New(sizes)
	if err != nil {
		t.Fatalf("pyramid.New: %v", err)
	}
	return p
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFitScale(t *testing.T) {
	tests := []struct {
		name                   string
		surfW, surfH, lvW, lvH float64
		want                   float64
	}{
		{"square", 100, 100, 100, 100, 1},
		{"taller image uses height", 400, 100, 200, 200, 0.5},
		{"wider image uses width", 100, 400, 200, 200, 0.5},
		{"large level", 800, 600, 3200, 1200, 0.25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FitScale(tc.surfW, tc.surfH, tc.lvW, tc.lvH); !approx(got, tc.want) {
				t.Fatalf("FitScale = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScenarioAInitAndZoomIn(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 100, Height: 100}, pyramid.Size{Width: 200, Height: 200})
	surf := Surface{Width: 100, Height: 100}
	s := NewState(p)
	if s.Level != 0 || s.CenterX != 50 || s.CenterY != 50 {
		t.Fatalf("unexpected initial state %+v", s)
	}
	if got := EffectiveScale(s, surf, p); !approx(got, 1) {
		t.Fatalf("initial scale = %v, want 1", got)
	}
	if !s.ZoomIn(p, surf, DefaultLimits()) {
		t.Fatal("expected zoom in to change state")
	}
	if s.Level != 1 || s.CenterX != 100 || s.CenterY != 100 {
		t.Fatalf("unexpected state after zoom in %+v", s)
	}
	// The fit stays on the coarsest level, so the finer level shows at 1:1.
	if got := EffectiveScale(s, surf, p); !approx(got, 1) {
		t.Fatalf("scale after zoom in = %v, want 1", got)
	}
	keys := VisibleTiles(s, EffectiveScale(s, surf, p), surf, p.Level(s.Level))
	if len(keys) == 0 {
		t.Fatal("expected visible tiles")
	}
	for _, k := range keys {
		if k.Level != 1 {
			t.Fatalf("tile %v is not on level 1", k)
		}
	}
}

func TestScenarioBDrag(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 100, Height: 100}, pyramid.Size{Width: 200, Height: 200})
	s := NewState(p)
	var d Drag
	d.Start(0, 0)
	if !d.Move(10, 0, &s, 1, p.Level(0)) {
		t.Fatal("expected drag move to apply")
	}
	if s.CenterX != 40 || s.CenterY != 50 {
		t.Fatalf("center = (%v,%v), want (40,50)", s.CenterX, s.CenterY)
	}
	d.Move(500, -500, &s, 1, p.Level(0))
	if s.CenterX != 0 || s.CenterY != 100 {
		t.Fatalf("center not clamped: (%v,%v)", s.CenterX, s.CenterY)
	}
	if !d.End() {
		t.Fatal("expected End to report an active drag")
	}
	if d.Move(0, 0, &s, 1, p.Level(0)) {
		t.Fatal("move after end should be ignored")
	}
}

func TestScenarioCCullTopLeftQuadrant(t *testing.T) {
	l := pyramid.Level{Index: 0, Width: 1016, Height: 1016}
	s := State{CenterX: 200, CenterY: 200}
	keys := VisibleTiles(s, 1, Surface{Width: 400, Height: 400}, l)
	if len(keys) != 1 || keys[0] != (pyramid.TileKey{Level: 0, Left: 0, Top: 0}) {
		t.Fatalf("visible = %v, want only (0,0)", keys)
	}
}

func TestCullIncludesOverlapNeighbours(t *testing.T) {
	l := pyramid.Level{Index: 0, Width: 1016, Height: 1016}
	s := State{CenterX: 254, CenterY: 254}
	keys := VisibleTiles(s, 1, Surface{Width: 508, Height: 508}, l)
	if len(keys) != 4 {
		t.Fatalf("expected overlap margin to reach all four tiles, got %v", keys)
	}
}

func TestScenarioDReset(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 100, Height: 60}, pyramid.Size{Width: 200, Height: 120})
	s := State{Level: 1, ExtraFine: 2, ExtraCoarse: 1, CenterX: 3, CenterY: 7}
	s.Reset(p)
	if s != (State{CenterX: 50, CenterY: 30}) {
		t.Fatalf("unexpected reset state %+v", s)
	}
}

func TestTileScreenRect(t *testing.T) {
	l := pyramid.Level{Width: 1000, Height: 600}
	s := State{CenterX: 500, CenterY: 300}
	surf := Surface{Width: 500, Height: 300}
	r := TileScreenRect(0, 0, l, s, 0.5, surf)
	want := Rect{Left: 0, Top: 0, Width: 255, Height: 255}
	if r != want {
		t.Fatalf("first tile rect = %+v, want %+v", r, want)
	}
	r = TileScreenRect(508, 508, l, s, 0.5, surf)
	want = Rect{Left: 253, Top: 253, Width: 247, Height: 47}
	if r != want {
		t.Fatalf("edge tile rect = %+v, want %+v", r, want)
	}
}

func TestZoomInCoarseBoundary(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 400, Height: 400}, pyramid.Size{Width: 800, Height: 800})
	surf := Surface{Width: 100, Height: 100}
	lim := DefaultLimits()
	s := NewState(p)
	for i := 0; i < 2; i++ {
		s.ZoomIn(p, surf, lim)
		if s.Level != 0 || s.ExtraCoarse != i+1 {
			t.Fatalf("step %d: expected coarse magnification, got %+v", i, s)
		}
	}
	if got := EffectiveScale(s, surf, p); !approx(got, 1) {
		t.Fatalf("scale after coarse steps = %v, want 1", got)
	}
	s.ZoomIn(p, surf, lim)
	if s.Level != 1 || s.ExtraCoarse != 2 {
		t.Fatalf("expected level switch once at native density, got %+v", s)
	}
	for i := 0; i < 3; i++ {
		s.ZoomOut(p)
	}
	if s.Level != 0 || s.ExtraCoarse != 0 {
		t.Fatalf("unexpected state after zooming back out %+v", s)
	}
	if s.ZoomOut(p) {
		t.Fatal("zoom out at the minimum should be a no-op")
	}
}

func TestZoomInFineBoundary(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 100, Height: 100}, pyramid.Size{Width: 200, Height: 200})
	surf := Surface{Width: 100, Height: 100}
	lim := DefaultLimits()
	s := NewState(p)
	for i := 0; i < 20; i++ {
		s.ZoomIn(p, surf, lim)
		if s.ExtraFine > lim.MaxExtraFine {
			t.Fatalf("extra fine steps exceeded limit: %+v", s)
		}
	}
	if s.Level != 1 || s.ExtraFine != lim.MaxExtraFine {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.ZoomIn(p, surf, lim) {
		t.Fatal("zoom in at the maximum should be a no-op")
	}
}

func TestZoomRoundTrip(t *testing.T) {
	p := mustPyramid(t,
		pyramid.Size{Width: 100, Height: 80},
		pyramid.Size{Width: 200, Height: 160},
		pyramid.Size{Width: 400, Height: 320},
	)
	surf := Surface{Width: 100, Height: 80}
	lim := DefaultLimits()
	start := State{Level: 1, CenterX: 37, CenterY: 101}
	s := start
	scale := EffectiveScale(s, surf, p)
	bx, by := s.BaseCenter()
	s.ZoomIn(p, surf, lim)
	s.ZoomOut(p)
	if s != start {
		t.Fatalf("round trip changed state: %+v -> %+v", start, s)
	}
	bx2, by2 := s.BaseCenter()
	if !approx(bx*scale, bx2*EffectiveScale(s, surf, p)) || !approx(by, by2) {
		t.Fatal("base centre changed across round trip")
	}
}

func TestRandomWalkKeepsCenterInBounds(t *testing.T) {
	p := mustPyramid(t,
		pyramid.Size{Width: 300, Height: 200},
		pyramid.Size{Width: 600, Height: 400},
		pyramid.Size{Width: 1200, Height: 800},
	)
	surf := Surface{Width: 640, Height: 480}
	lim := DefaultLimits()
	rng := rand.New(rand.NewSource(1))
	s := NewState(p)
	var d Drag
	for i := 0; i < 2000; i++ {
		switch rng.Intn(5) {
		case 0:
			s.ZoomIn(p, surf, lim)
		case 1:
			s.ZoomOut(p)
		case 2:
			d.Start(rng.Float64()*640, rng.Float64()*480)
		case 3:
			d.Move(rng.Float64()*2000-1000, rng.Float64()*2000-1000, &s, EffectiveScale(s, surf, p), p.Level(s.Level))
		case 4:
			d.End()
		}
		l := p.Level(s.Level)
		if s.CenterX < 0 || s.CenterX > float64(l.Width) || s.CenterY < 0 || s.CenterY > float64(l.Height) {
			t.Fatalf("step %d: centre out of bounds %+v for level %+v", i, s, l)
		}
		if s.ExtraCoarse < 0 || s.ExtraFine < 0 || s.ExtraFine > lim.MaxExtraFine {
			t.Fatalf("step %d: counters out of range %+v", i, s)
		}
	}
}

func TestDegenerateSurface(t *testing.T) {
	p := mustPyramid(t, pyramid.Size{Width: 100, Height: 100})
	s := NewState(p)
	if got := EffectiveScale(s, Surface{}, p); got != 0 {
		t.Fatalf("expected zero scale, got %v", got)
	}
	if keys := VisibleTiles(s, 0, Surface{}, p.Level(0)); keys != nil {
		t.Fatalf("expected no tiles, got %v", keys)
	}
}
