package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/tilesource"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "moon")
	if err := os.MkdirAll(filepath.Join(dir, "1"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p, err := pyramid.New([]pyramid.Size{{Width: 300, Height: 200}, {Width: 600, Height: 400}})
	if err != nil {
		t.Fatalf("pyramid.New: %v", err)
	}
	var info bytes.Buffer
	if err := pyramid.WriteInfo(&info, p); err != nil {
		t.Fatalf("WriteInfo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, pyramid.InfoFile), info.Bytes(), 0o644); err != nil {
		t.Fatalf("write info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1", "508_0.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write tile: %v", err)
	}
	s, err := New(context.Background(), tilesource.NewDir(dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, s.Handler(nil)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestInfo(t *testing.T) {
	s, h := newTestServer(t)
	w := get(h, "/info")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var info tilesource.Info
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := uuid.Parse(info.ID); err != nil {
		t.Fatalf("id %q is not a uuid: %v", info.ID, err)
	}
	if info.ID != s.Info().ID || info.Title != "moon" || len(info.Levels) != 2 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestIndex(t *testing.T) {
	s, h := newTestServer(t)
	w := get(h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var index struct {
		Title  string `json:"title"`
		ID     string `json:"id"`
		Levels int    `json:"levels"`
		Info   string `json:"info"`
		Tiles  string `json:"tiles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &index); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if index.Title != "moon" || index.ID != s.Info().ID || index.Levels != 2 || index.Info != "/info" {
		t.Fatalf("unexpected index %+v", index)
	}
	if want := "/tile/" + s.Info().ID + "/{level}/{left}_{top}.jpg"; index.Tiles != want {
		t.Fatalf("tiles = %q, want %q", index.Tiles, want)
	}
}

func TestTile(t *testing.T) {
	s, h := newTestServer(t)
	id := s.Info().ID

	w := get(h, pyramid.TileURLPath(id, pyramid.TileKey{Level: 1, Left: 508}))
	if w.Code != http.StatusOK || w.Body.String() != "jpeg" {
		t.Fatalf("tile: %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type %q", ct)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing file", pyramid.TileURLPath(id, pyramid.TileKey{Level: 1}), http.StatusOK},
		{"outside level", pyramid.TileURLPath(id, pyramid.TileKey{Level: 0, Left: 508}), http.StatusOK},
		{"unknown level", pyramid.TileURLPath(id, pyramid.TileKey{Level: 7}), http.StatusOK},
		{"wrong id", pyramid.TileURLPath("nope", pyramid.TileKey{Level: 1, Left: 508}), http.StatusNotFound},
		{"bad level", "/tile/" + id + "/x/0_0.jpg", http.StatusBadRequest},
		{"bad name", "/tile/" + id + "/1/3_0.jpg", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(h, tc.path)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusOK && w.Body.Len() != 0 {
				t.Fatalf("expected an empty body, got %q", w.Body.String())
			}
		})
	}
}

func TestHTTPSourceAgainstServer(t *testing.T) {
	_, h := newTestServer(t)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	src := tilesource.NewHTTP(ts.URL, ts.Client())
	info, err := src.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(info.Levels) != 2 {
		t.Fatalf("unexpected levels %+v", info.Levels)
	}
	b, err := src.Tile(context.Background(), pyramid.TileKey{Level: 1, Left: 508})
	if err != nil || string(b) != "jpeg" {
		t.Fatalf("Tile = %q, %v", b, err)
	}
}
