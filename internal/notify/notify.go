// Package notify sends desktop notifications for snapshot and clipboard
// actions taken in the viewer.
package notify

import (
	"errors"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/deepzoom/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when a view snapshot is written to disk.
	EventSave Event = "save"
	// EventCopy fires when the view or its location is copied.
	EventCopy Event = "copy"
)

// Body templates may use {detail} and {location}.
const (
	DefaultTitle    = "Deep Zoom"
	DefaultSaveBody = "Saved {detail}\nat {location}"
	DefaultCopyBody = "Copied {detail} to the clipboard\nat {location}"
)

// Preferences holds the notification title and one body template per event.
type Preferences struct {
	Title  string
	Bodies map[Event]string
}

// DefaultPreferences returns the built-in wording.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: DefaultTitle,
		Bodies: map[Event]string{
			EventSave: DefaultSaveBody,
			EventCopy: DefaultCopyBody,
		},
	}
}

// LoadPreferences applies DEEPZOOM_NOTIFY_TITLE, DEEPZOOM_NOTIFY_SAVE_TEXT and
// DEEPZOOM_NOTIFY_COPY_TEXT over the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("DEEPZOOM_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for env, event := range map[string]Event{
		"DEEPZOOM_NOTIFY_SAVE_TEXT": EventSave,
		"DEEPZOOM_NOTIFY_COPY_TEXT": EventCopy,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			prefs.Bodies[event] = v
		}
	}
	return prefs
}

// Notice is one thing worth telling the user about.
type Notice struct {
	Event Event
	// Detail names what was saved or copied.
	Detail string
	// Location is the view position, as session.Location reports it.
	Location string
	// Icon is an existing image file to show. Preview is written to a
	// temporary file when Icon is empty.
	Icon    string
	Preview image.Image
}

// body expands the template for n. Lines left with an empty placeholder are
// dropped.
func (n Notice) body(template string) string {
	r := strings.NewReplacer("{detail}", n.Detail, "{location}", n.Location)
	var lines []string
	for _, line := range strings.Split(template, "\n") {
		if (strings.Contains(line, "{detail}") && n.Detail == "") ||
			(strings.Contains(line, "{location}") && n.Location == "") {
			continue
		}
		if s := strings.TrimSpace(r.Replace(line)); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// send is replaced in tests.
var send = platform.Notify

// Notifier delivers notices in the background so a slow notification daemon
// never stalls the window.
type Notifier struct {
	prefs Preferences

	mu      sync.Mutex
	enabled map[Event]bool
	wg      sync.WaitGroup
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	bodies := make(map[Event]string, len(prefs.Bodies))
	for k, v := range prefs.Bodies {
		bodies[k] = v
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Bodies: bodies},
		enabled: make(map[Event]bool),
	}
}

// Enable toggles notices for event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Enabled reports whether notices for event are sent.
func (n *Notifier) Enabled(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled[event]
}

// Saved announces a snapshot written to path, using the file as the icon.
func (n *Notifier) Saved(path, location string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	n.Post(Notice{Event: EventSave, Detail: path, Location: location, Icon: path})
}

// Copied announces a clipboard write. preview may be nil.
func (n *Notifier) Copied(what, location string, preview image.Image) {
	n.Post(Notice{Event: EventCopy, Detail: what, Location: location, Preview: preview})
}

// Post sends notice if its event is enabled. It returns immediately.
func (n *Notifier) Post(notice Notice) {
	if !n.Enabled(notice.Event) {
		return
	}
	body := notice.body(n.prefs.Bodies[notice.Event])
	if body == "" {
		return
	}
	opts := platform.Options{IconPath: notice.Icon}
	var cleanup func()
	if opts.IconPath == "" && notice.Preview != nil {
		path, done, err := writePreview(notice.Preview)
		if err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			opts.IconPath, cleanup = path, done
		}
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if cleanup != nil {
			defer cleanup()
		}
		if err := send(n.prefs.Title, body, opts); err != nil && !errors.Is(err, errors.ErrUnsupported) {
			log.Printf("notification %s: %v", notice.Event, err)
		}
	}()
}

// Wait blocks until posted notices have been handed to the platform.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "deepzoom-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove preview: %v", err)
		}
	}, nil
}
