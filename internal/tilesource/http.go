package tilesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/deepzoom/internal/pyramid"
)

// HTTP talks to a deepzoom tile server.
type HTTP struct {
	BaseURL string
	Client  *http.Client

	mu sync.Mutex
	id string
}

// NewHTTP returns a source for the server at baseURL. A nil client gets a
// default with a request timeout.
func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// Info fetches /info and remembers the image id for tile requests.
func (h *HTTP) Info(ctx context.Context) (Info, error) {
	body, status, err := h.get(ctx, "/info")
	if err != nil {
		return Info{}, err
	}
	if status != http.StatusOK {
		return Info{}, fmt.Errorf("info: unexpected status %d", status)
	}
	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return Info{}, fmt.Errorf("decode info: %w", err)
	}
	if _, err := pyramid.New(info.Levels); err != nil {
		return Info{}, fmt.Errorf("info: %w", err)
	}
	h.mu.Lock()
	h.id = info.ID
	h.mu.Unlock()
	return info, nil
}

// Tile fetches one tile. The server answers a missing tile with an empty
// body, which is reported as ErrNotFound like a 404.
func (h *HTTP) Tile(ctx context.Context, key pyramid.TileKey) ([]byte, error) {
	h.mu.Lock()
	id := h.id
	h.mu.Unlock()
	if id == "" {
		return nil, fmt.Errorf("tile %s: image id unknown, call Info first", key)
	}
	body, status, err := h.get(ctx, pyramid.TileURLPath(id, key))
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	case status != http.StatusOK:
		return nil, fmt.Errorf("tile %s: unexpected status %d", key, status)
	case len(body) == 0:
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return body, nil
}

func (h *HTTP) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.StatusCode, nil
}
