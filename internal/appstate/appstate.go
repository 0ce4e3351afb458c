// Package appstate hosts a deep zoom session in a shiny window.
package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/deepzoom/internal/notify"
	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/render"
	"github.com/example/deepzoom/internal/session"
	"github.com/example/deepzoom/internal/theme"
	"github.com/example/deepzoom/internal/tilesource"
	"github.com/example/deepzoom/internal/viewport"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// messageDuration is how long a status message stays on screen.
const messageDuration = 3 * time.Second

// tileEvent carries a finished fetch onto the window's event goroutine.
type tileEvent tilesource.Result

type AppState struct {
	Source tilesource.Source
	Info   tilesource.Info

	Width, Height int
	Theme         *theme.Theme
	Limits        viewport.Limits
	LoaderOptions tilesource.LoaderOptions
	SnapshotDir   string
	Notifier      *notify.Notifier

	pyr *pyramid.Pyramid

	closeOnce sync.Once
	onClose   func()
}

// Option configures an AppState.
type Option func(*AppState)

// WithWindowSize sets the initial window size.
func WithWindowSize(width, height int) Option {
	return func(a *AppState) {
		a.Width = width
		a.Height = height
	}
}

// WithTheme sets the colours used to draw the view.
func WithTheme(t *theme.Theme) Option {
	return func(a *AppState) { a.Theme = t }
}

// WithLimits sets the zoom limits.
func WithLimits(l viewport.Limits) Option {
	return func(a *AppState) { a.Limits = l }
}

// WithLoaderOptions sizes the tile cache and fetch concurrency.
func WithLoaderOptions(o tilesource.LoaderOptions) Option {
	return func(a *AppState) { a.LoaderOptions = o }
}

// WithSnapshotDir sets where snapshots are written. Empty means the working
// directory.
func WithSnapshotDir(dir string) Option {
	return func(a *AppState) { a.SnapshotDir = dir }
}

// WithNotifier sets the notifier used for save and copy events.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *AppState) { a.Notifier = n }
}

// WithOnClose registers a callback invoked once when the window closes.
func WithOnClose(fn func()) Option {
	return func(a *AppState) { a.onClose = fn }
}

// New prepares a viewer for src. info must come from src.
func New(src tilesource.Source, info tilesource.Info, opts ...Option) (*AppState, error) {
	p, err := pyramid.New(info.Levels)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", info.ID, err)
	}
	a := &AppState{
		Source:        src,
		Info:          info,
		Width:         1024,
		Height:        768,
		Theme:         theme.Default(),
		Limits:        viewport.DefaultLimits(),
		LoaderOptions: tilesource.DefaultLoaderOptions(),
		pyr:           p,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	title := a.Info.Title
	if title == "" {
		title = a.Info.ID
	}
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  a.Width,
		Height: a.Height,
		Title:  "Deep Zoom - " + title,
	})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer a.notifyClose()
	defer a.Notifier.Wait()

	loader, err := tilesource.NewLoader(context.Background(), a.Source, a.LoaderOptions, func(r tilesource.Result) {
		w.Send(tileEvent(r))
	})
	if err != nil {
		log.Printf("tile loader: %v", err)
		return
	}
	defer loader.Close()

	v := &viewer{
		title:       title,
		sess:        session.New(a.Info.ID, a.pyr, loader, a.Limits),
		theme:       a.Theme,
		notifier:    a.Notifier,
		snapshotDir: a.SnapshotDir,
	}
	ctl := &controller{sess: v.sess}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	var width, height int
	for {
		e := w.NextEvent()
		var cmd command
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			v.sess.OnSurfaceResize(width, height-render.StatusBarHeight)
			cmd = cmdRepaint
		case paint.Event:
			if width == 0 || height == 0 {
				continue
			}
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			st := paintState{
				size:    image.Point{width, height},
				frame:   v.frame(time.Now()),
				theme:   v.theme,
				quality: render.Smooth,
			}
			if v.sess.Dragging() {
				st.quality = render.Fast
			}
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case tileEvent:
			cmd = repaintIf(v.sess.TileLoaded(e.Req, e.Image, e.Err))
		case mouse.Event:
			cmd = ctl.handleMouse(e)
		case touch.Event:
			cmd = ctl.handleTouch(e)
		case key.Event:
			cmd = ctl.handleKey(e)
		case error:
			log.Printf("window: %v", e)
		}
		if cmd == cmdQuit {
			return
		}
		if cmd != cmdNone && v.run(cmd, time.Now()) {
			w.Send(paint.Event{})
			if cmd != cmdRepaint {
				// Clear the status message once it expires.
				time.AfterFunc(messageDuration, func() { w.Send(paint.Event{}) })
			}
		}
	}
}
