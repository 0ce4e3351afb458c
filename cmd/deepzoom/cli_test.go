package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/deepzoom/internal/appstate"
	"github.com/example/deepzoom/internal/config"
	"github.com/example/deepzoom/internal/tilesource"
)

func testRoot() *root {
	return &root{program: "deepzoom", config: config.New()}
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()
	return path
}

func slicePyramid(t *testing.T) string {
	t.Helper()
	img := writePNG(t, 40, 30)
	out := t.TempDir()
	cmd, err := parseSliceCmd([]string{"-min-dim", "10", "-out", out, img}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var progress bytes.Buffer
	cmd.stderr = &progress
	if err := cmd.Run(); err != nil {
		t.Fatalf("slice: %v", err)
	}
	if !strings.Contains(progress.String(), "wrote 3 levels") {
		t.Fatalf("unexpected progress output %q", progress.String())
	}
	return filepath.Join(out, "photo")
}

func TestSliceThenInfo(t *testing.T) {
	dir := slicePyramid(t)
	cmd, err := parseInfoCmd([]string{dir}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	cmd.out = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("info: %v", err)
	}
	got := out.String()
	for _, want := range []string{"photo (photo)", "level 0: 10 x 8 px, 1 x 1 tiles", "level 2: 40 x 30 px", "3 levels, 3 tiles"} {
		if !strings.Contains(got, want) {
			t.Errorf("info output missing %q:\n%s", want, got)
		}
	}
}

func TestSliceRejectsSmallImage(t *testing.T) {
	img := writePNG(t, 8, 8)
	cmd, err := parseSliceCmd([]string{"-q", "-min-dim", "10", img}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cmd.stderr = &bytes.Buffer{}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error")
	} else if want := "failed to slice"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestViewRequiresSource(t *testing.T) {
	_, err := parseViewCmd(nil, testRoot())
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected a usage error, got %v", err)
	}
	if want := "deepzoom view"; !strings.Contains(uerr.Error(), want) {
		t.Fatalf("expected help to mention %q, got %q", want, uerr.Error())
	}
}

func TestViewUsesConfig(t *testing.T) {
	dir := slicePyramid(t)
	var got *appstate.AppState
	original := runViewer
	runViewer = func(a *appstate.AppState) { got = a }
	t.Cleanup(func() { runViewer = original })

	r := testRoot()
	r.config.Source = dir
	r.config.View.MaxExtraFine = 5
	r.config.View.CacheMB = 8
	cmd, err := parseViewCmd([]string{"-width", "640"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("view: %v", err)
	}
	if got == nil {
		t.Fatal("viewer was not started")
	}
	if got.Width != 640 || got.Height != 768 {
		t.Fatalf("window size %dx%d", got.Width, got.Height)
	}
	if got.Limits.MaxExtraFine != 5 || got.LoaderOptions.CacheBytes != 8<<20 {
		t.Fatalf("config not applied: %+v %+v", got.Limits, got.LoaderOptions)
	}
	if got.Info.Title != "photo" {
		t.Fatalf("title = %q", got.Info.Title)
	}
}

func TestViewReportsMissingSource(t *testing.T) {
	cmd, err := parseViewCmd([]string{filepath.Join(t.TempDir(), "missing")}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error")
	}
}

func TestServeHandler(t *testing.T) {
	dir := slicePyramid(t)
	var srv *http.Server
	original := listenAndServe
	listenAndServe = func(s *http.Server) error { srv = s; return http.ErrServerClosed }
	t.Cleanup(func() { listenAndServe = original })

	logFile := filepath.Join(t.TempDir(), "access.log")
	cmd, err := parseServeCmd([]string{"-addr", "127.0.0.1:0", "-log-file", logFile, dir}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if srv == nil || srv.Addr != "127.0.0.1:0" {
		t.Fatalf("unexpected server %+v", srv)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("info status %d", rec.Code)
	}
	var info tilesource.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Title != "photo" || len(info.Levels) != 3 || info.ID == "" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEEPZOOM_CONFIG", "")
	t.Setenv("DEEPZOOM_THEME", "")
	chdir(t, t.TempDir())
	r := newRoot()
	err := r.Run([]string{"nope"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected a usage error, got %v", err)
	}
	help := uerr.Error()
	for _, want := range []string{"Usage: deepzoom", "slice", "-theme"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestResolveThemePrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	r := testRoot()
	r.config.Theme = "light"
	t.Setenv("DEEPZOOM_THEME", "paper")
	if got := r.resolveTheme(); got.Name != "Paper" {
		t.Fatalf("env theme not used: %q", got.Name)
	}
	r.themeName = "dark"
	if got := r.resolveTheme(); got.Name != "Dark" {
		t.Fatalf("flag theme not used: %q", got.Name)
	}
}

func TestConfigUnknownSubcommand(t *testing.T) {
	cmd, err := parseConfigCmd([]string{"frobnicate"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "unknown config command") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := loadEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}

	path := filepath.Join(dir, "present.env")
	if err := os.WriteFile(path, []byte("DEEPZOOM_TEST_ENV=loaded\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DEEPZOOM_TEST_ENV", "")
	os.Unsetenv("DEEPZOOM_TEST_ENV")
	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv("DEEPZOOM_TEST_ENV"); got != "loaded" {
		t.Fatalf("DEEPZOOM_TEST_ENV = %q", got)
	}

	// A directory exists but cannot be read as a file.
	if err := loadEnv(dir); err == nil {
		t.Fatal("expected an error for an unreadable .env")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (t.Chdir equivalent for toolchains before go1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
