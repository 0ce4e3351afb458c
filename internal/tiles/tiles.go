// Package tiles keeps the retained tile elements of the active level in sync
// with the set of visible tiles.
package tiles

import (
	"image"
	"log/slog"
	"sort"

	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/viewport"
)

// State is the lifecycle phase of an element.
type State int

const (
	// Pending elements are positioned but their image has not arrived yet.
	Pending State = iota
	// Visible elements have an image and are part of the drawn set.
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "pending"
}

// Request is one tile fetch. Seq distinguishes fetches for the same key across
// evictions so a late completion cannot revive a newer element.
type Request struct {
	Key pyramid.TileKey
	Seq uint64
}

// Fetcher starts an asynchronous tile load. The result must be handed back to
// Manager.Complete on the goroutine that owns the Manager.
type Fetcher interface {
	Fetch(req Request)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(Request)

func (f FetcherFunc) Fetch(req Request) { f(req) }

// Element is the retained visual for one tile.
type Element struct {
	Key   pyramid.TileKey
	Rect  viewport.Rect
	State State
	Image image.Image

	seq uint64
}

// Manager owns at most one element per key and only for one level at a time.
// It is not safe for concurrent use.
type Manager struct {
	fetcher  Fetcher
	elements map[pyramid.TileKey]*Element
	seq      uint64
	logger   *slog.Logger
}

// NewManager returns an empty manager that loads tiles through f. logger
// must not be nil; the session supplies its own.
func NewManager(f Fetcher, logger *slog.Logger) *Manager {
	return &Manager{
		fetcher:  f,
		elements: make(map[pyramid.TileKey]*Element),
		logger:   logger,
	}
}

// Reconcile makes the element set match visible for the given level. rect
// supplies the current surface rectangle of each visible key. It returns the
// number of elements created and evicted.
func (m *Manager) Reconcile(level int, visible []pyramid.TileKey, rect func(pyramid.TileKey) viewport.Rect) (created, evicted int) {
	for key := range m.elements {
		if key.Level != level {
			m.evict(key)
			evicted++
		}
	}

	want := make(map[pyramid.TileKey]struct{}, len(visible))
	for _, key := range visible {
		want[key] = struct{}{}
		if el, ok := m.elements[key]; ok {
			el.Rect = rect(key)
			continue
		}
		m.seq++
		el := &Element{Key: key, Rect: rect(key), State: Pending, seq: m.seq}
		m.elements[key] = el
		created++
		m.fetcher.Fetch(Request{Key: key, Seq: el.seq})
	}

	for key := range m.elements {
		if _, ok := want[key]; !ok {
			m.evict(key)
			evicted++
		}
	}
	return created, evicted
}

func (m *Manager) evict(key pyramid.TileKey) {
	delete(m.elements, key)
	m.logger.Debug("tile evicted", "tile", key.String())
}

// Complete delivers a fetch result. Results for evicted or re-created
// elements are dropped. A failed fetch leaves the element pending. It
// reports whether an element became visible.
func (m *Manager) Complete(req Request, img image.Image, err error) bool {
	el, ok := m.elements[req.Key]
	if !ok || el.seq != req.Seq {
		m.logger.Debug("stale tile discarded", "tile", req.Key.String())
		return false
	}
	if err != nil {
		m.logger.Warn("tile fetch failed", "tile", req.Key.String(), "err", err)
		return false
	}
	if img == nil || el.State == Visible {
		return false
	}
	el.Image = img
	el.State = Visible
	return true
}

// Len returns the number of live elements.
func (m *Manager) Len() int { return len(m.elements) }

// Get returns the element for key, if any.
func (m *Manager) Get(key pyramid.TileKey) (*Element, bool) {
	el, ok := m.elements[key]
	return el, ok
}

// Elements returns every live element in row-major order.
func (m *Manager) Elements() []*Element {
	out := make([]*Element, 0, len(m.elements))
	for _, el := range m.elements {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
	return out
}

// Visible returns the elements that have received their image, row-major.
func (m *Manager) Visible() []*Element {
	all := m.Elements()
	out := all[:0]
	for _, el := range all {
		if el.State == Visible {
			out = append(out, el)
		}
	}
	return out
}

// Clear drops every element.
func (m *Manager) Clear() {
	clear(m.elements)
}
