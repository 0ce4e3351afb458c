package tilesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/semaphore"

	"github.com/example/deepzoom/internal/tiles"
)

// Result is a finished fetch handed to the deliver callback.
type Result struct {
	Req   tiles.Request
	Image image.Image
	Err   error
}

// LoaderOptions sizes the decoded tile cache and the fetch concurrency.
type LoaderOptions struct {
	CacheBytes int64
	Workers    int
}

// DefaultLoaderOptions returns the options used when nothing is configured.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{CacheBytes: 256 << 20, Workers: 6}
}

// Loader fetches and decodes tiles in the background. It implements
// tiles.Fetcher; results are passed to the deliver callback, which must hand
// them to the goroutine that owns the session.
type Loader struct {
	src     Source
	cache   *ristretto.Cache[string, image.Image]
	sem     *semaphore.Weighted
	deliver func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader starts a loader for src.
func NewLoader(ctx context.Context, src Source, opts LoaderOptions, deliver func(Result)) (*Loader, error) {
	def := DefaultLoaderOptions()
	if opts.CacheBytes <= 0 {
		opts.CacheBytes = def.CacheBytes
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, image.Image]{
		NumCounters: 10000,
		MaxCost:     opts.CacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Loader{
		src:     src,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		deliver: deliver,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Fetch loads req.Key asynchronously.
func (l *Loader) Fetch(req tiles.Request) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		img, err := l.load(req)
		if l.ctx.Err() != nil {
			return
		}
		l.deliver(Result{Req: req, Image: img, Err: err})
	}()
}

func (l *Loader) load(req tiles.Request) (image.Image, error) {
	k := req.Key.String()
	if img, ok := l.cache.Get(k); ok {
		return img, nil
	}
	if err := l.sem.Acquire(l.ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	b, err := l.src.Tile(l.ctx, req.Key)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", req.Key, err)
	}
	r := img.Bounds()
	l.cache.Set(k, img, int64(r.Dx()*r.Dy()*4))
	return img, nil
}

// Cached reports whether the decoded tile for key is held in the cache.
func (l *Loader) Cached(key string) bool {
	l.cache.Wait()
	_, ok := l.cache.Get(key)
	return ok
}

// Close stops outstanding fetches, waits for them and releases the cache.
// Results not yet delivered are dropped.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
	l.cache.Close()
}
