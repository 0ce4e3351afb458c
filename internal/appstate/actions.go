package appstate

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/deepzoom/internal/clipboard"
	"github.com/example/deepzoom/internal/notify"
	"github.com/example/deepzoom/internal/render"
	"github.com/example/deepzoom/internal/session"
	"github.com/example/deepzoom/internal/theme"
)

// Clipboard access, replaced in tests.
var (
	writeImage = clipboard.WriteImage
	writeText  = clipboard.WriteText
	readText   = clipboard.ReadText
)

// viewer is the window-independent half of the app: the session plus the
// actions bound to keys.
type viewer struct {
	title       string
	sess        *session.Session
	theme       *theme.Theme
	notifier    *notify.Notifier
	snapshotDir string

	message      string
	messageUntil time.Time
}

func (v *viewer) flash(now time.Time, format string, args ...any) {
	v.message = fmt.Sprintf(format, args...)
	v.messageUntil = now.Add(messageDuration)
}

func (v *viewer) status(now time.Time) string {
	if v.message != "" && now.Before(v.messageUntil) {
		return v.message
	}
	return render.StatusText(v.title, v.sess.State(), v.sess.Pyramid().LevelCount(), v.sess.Scale())
}

func (v *viewer) frame(now time.Time) render.Frame {
	return render.FrameOf(v.sess, v.status(now))
}

// snapshot composes the current view without the status bar.
func (v *viewer) snapshot() *image.RGBA {
	surf := v.sess.Surface()
	c := render.NewCompositor(v.theme)
	return c.Snapshot(render.FrameOf(v.sess, ""), image.Point{surf.Width, surf.Height})
}

// run performs cmd and reports whether the window needs repainting.
func (v *viewer) run(cmd command, now time.Time) bool {
	switch cmd {
	case cmdRepaint:
		return true
	case cmdSave:
		path, err := v.saveSnapshot(now)
		if err != nil {
			log.Printf("save snapshot: %v", err)
			v.flash(now, "save failed: %v", err)
			return true
		}
		v.notifier.Saved(path, v.sess.Location())
		v.flash(now, "saved %s", path)
	case cmdCopyView:
		img := v.snapshot()
		if err := writeImage(img); err != nil {
			log.Printf("copy view: %v", err)
			v.flash(now, "copy failed: %v", err)
			return true
		}
		v.notifier.Copied("view", v.sess.Location(), img)
		v.flash(now, "view copied")
	case cmdCopyLocation:
		loc := v.sess.Location()
		if err := writeText(loc); err != nil {
			log.Printf("copy location: %v", err)
			v.flash(now, "copy failed: %v", err)
			return true
		}
		v.notifier.Copied("location", loc, nil)
		v.flash(now, "location %s copied", loc)
	case cmdPasteLocation:
		text, err := readText()
		if err != nil {
			log.Printf("paste location: %v", err)
			v.flash(now, "paste failed: %v", err)
			return true
		}
		level, cx, cy, err := session.ParseLocation(text)
		if err != nil {
			v.flash(now, "clipboard holds no location")
			return true
		}
		v.sess.GoTo(level, cx, cy)
		v.flash(now, "moved to %s", v.sess.Location())
	default:
		return false
	}
	return true
}

func (v *viewer) saveSnapshot(now time.Time) (string, error) {
	dir := v.snapshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, snapshotName(v.title, now))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, v.snapshot()); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// snapshotName builds a file name from the image title and a timestamp.
func snapshotName(title string, now time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, title)
	if clean == "" {
		clean = "deepzoom"
	}
	return fmt.Sprintf("%s-%s.png", clean, now.Format("20060102-150405"))
}
