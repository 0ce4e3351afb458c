package pyramid

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewAssignsIndices(t *testing.T) {
	p, err := New([]Size{{100, 80}, {200, 160}, {400, 320}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.LevelCount() != 3 {
		t.Fatalf("expected 3 levels, got %d", p.LevelCount())
	}
	if got := p.Coarsest(); got != (Level{Index: 0, Width: 100, Height: 80}) {
		t.Errorf("unexpected coarsest %+v", got)
	}
	if got := p.Finest(); got != (Level{Index: 2, Width: 400, Height: 320}) {
		t.Errorf("unexpected finest %+v", got)
	}
	if got := p.Level(1); got.Index != 1 || got.Width != 200 {
		t.Errorf("unexpected level 1 %+v", got)
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoLevels) {
		t.Fatalf("expected ErrNoLevels, got %v", err)
	}
	if _, err := New([]Size{{0, 10}}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestLevelOutOfRangePanics(t *testing.T) {
	p, _ := New([]Size{{10, 10}})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	p.Level(1)
}

func TestInfoRoundTrip(t *testing.T) {
	input := `[{"width": 1000, "height": 500}, {"width": 2000, "height": 1000}]`
	p, err := ReadInfo(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteInfo(&buf, p); err != nil {
		t.Fatalf("WriteInfo: %v", err)
	}
	p2, err := ReadInfo(&buf)
	if err != nil {
		t.Fatalf("ReadInfo again: %v", err)
	}
	if p2.LevelCount() != 2 || p2.Finest().Width != 2000 {
		t.Fatalf("unexpected pyramid after round trip: %+v", p2.Sizes())
	}
}

func TestTileAddressing(t *testing.T) {
	k := TileKey{Level: 3, Left: 1016, Top: 508}
	if got := k.TilePath(); got != "3/1016_508.jpg" {
		t.Errorf("TilePath = %q", got)
	}
	if got := TileURLPath("abc", k); got != "/tile/abc/3/1016_508.jpg" {
		t.Errorf("TileURLPath = %q", got)
	}
	left, top, err := ParseTileName(k.TileName())
	if err != nil || left != 1016 || top != 508 {
		t.Fatalf("ParseTileName = %d,%d,%v", left, top, err)
	}
	for _, bad := range []string{"1_2.png", "12.jpg", "a_0.jpg", "5_0.jpg", "-508_0.jpg"} {
		if _, _, err := ParseTileName(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTilesGrid(t *testing.T) {
	l := Level{Index: 1, Width: 1017, Height: 508}
	keys := Tiles(l)
	if len(keys) != 3 {
		t.Fatalf("expected 3 tiles, got %d: %v", len(keys), keys)
	}
	if keys[2] != (TileKey{Level: 1, Left: 1016, Top: 0}) {
		t.Errorf("unexpected last key %v", keys[2])
	}
	p, _ := New([]Size{{508, 508}, {1017, 1016}})
	if !p.Contains(TileKey{Level: 1, Left: 1016, Top: 508}) {
		t.Error("expected tile to exist")
	}
	if p.Contains(TileKey{Level: 1, Left: 1016, Top: 1016}) {
		t.Error("tile beyond level height should not exist")
	}
}
