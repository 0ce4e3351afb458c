// Package slicer turns a large image into a deep zoom pyramid on disk.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/example/deepzoom/internal/pyramid"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MinImageDim is the smallest edge a level may have before halving stops.
const MinImageDim = 1920

// ErrImageTooSmall is returned when neither edge reaches the minimum.
var ErrImageTooSmall = errors.New("image is too small")

// Progress reports tile output for one level.
type Progress struct {
	Level  int // level index being written, finest first
	Levels int
	Width  int
	Height int
	Done   int
	Total  int
}

// Options tune slicing.
type Options struct {
	// MinDim overrides MinImageDim.
	MinDim int
	// Quality is the JPEG quality, 1-100.
	Quality int
	// Workers bounds concurrent tile encoders.
	Workers int
	// Progress, if set, is called after each tile. Calls are serialised.
	Progress func(Progress)
}

func (o Options) withDefaults() Options {
	if o.MinDim <= 0 {
		o.MinDim = MinImageDim
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = jpeg.DefaultQuality
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Levels returns the level sizes for a w x h image, coarsest first. Each
// coarser level halves the previous one rounding up, and halving continues
// while either edge is at least minDim.
func Levels(w, h, minDim int) []pyramid.Size {
	var sizes []pyramid.Size
	for w >= minDim || h >= minDim {
		sizes = append(sizes, pyramid.Size{Width: w, Height: h})
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	for i, j := 0, len(sizes)-1; i < j; i, j = i+1, j-1 {
		sizes[i], sizes[j] = sizes[j], sizes[i]
	}
	return sizes
}

// SliceFile decodes imagePath and writes its pyramid to outRoot/<name>,
// where name is the file name without extension. An empty outRoot places the
// pyramid next to the image. An existing pyramid directory is replaced.
func SliceFile(ctx context.Context, imagePath, outRoot string, opts Options) (string, *pyramid.Pyramid, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", nil, err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", nil, fmt.Errorf("decode %s: %w", imagePath, err)
	}

	if outRoot == "" {
		outRoot = filepath.Dir(imagePath)
	}
	base := filepath.Base(imagePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Join(outRoot, name)

	p, err := Slice(ctx, img, dir, opts)
	if err != nil {
		return "", nil, err
	}
	return dir, p, nil
}

// Slice writes the pyramid of img into dir: one directory per level holding
// {left}_{top}.jpg tiles, plus info.json.
func Slice(ctx context.Context, img image.Image, dir string, opts Options) (*pyramid.Pyramid, error) {
	opts = opts.withDefaults()
	b := img.Bounds()
	sizes := Levels(b.Dx(), b.Dy(), opts.MinDim)
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%dx%d below %d: %w", b.Dx(), b.Dy(), opts.MinDim, ErrImageTooSmall)
	}
	p, err := pyramid.New(sizes)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove existing pyramid: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	cur := toRGBA(img)
	for i := p.LevelCount() - 1; i >= 0; i-- {
		l := p.Level(i)
		if cur.Bounds().Dx() != l.Width || cur.Bounds().Dy() != l.Height {
			cur = resize(cur, l.Width, l.Height)
		}
		if err := writeLevel(ctx, cur, l, p.LevelCount(), dir, opts); err != nil {
			return nil, err
		}
	}

	if err := writeInfo(dir, p); err != nil {
		return nil, err
	}
	return p, nil
}

func writeLevel(ctx context.Context, img *image.RGBA, l pyramid.Level, levels int, dir string, opts Options) error {
	levelDir := filepath.Join(dir, fmt.Sprint(l.Index))
	if err := os.Mkdir(levelDir, 0o755); err != nil {
		return err
	}
	keys := pyramid.Tiles(l)

	var mu sync.Mutex
	done := 0
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writeTile(img, k, filepath.Join(levelDir, k.TileName()), opts.Quality); err != nil {
				return err
			}
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(Progress{Level: l.Index, Levels: levels, Width: l.Width, Height: l.Height, Done: done, Total: len(keys)})
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// TileRect is the pixel area of level l stored in tile k: the stride cell
// grown by the overlap and clipped to the level.
func TileRect(k pyramid.TileKey, l pyramid.Level) image.Rectangle {
	r := image.Rect(
		k.Left-pyramid.TileOverlap,
		k.Top-pyramid.TileOverlap,
		k.Left-pyramid.TileOverlap+pyramid.TileSizeWithOverlap,
		k.Top-pyramid.TileOverlap+pyramid.TileSizeWithOverlap,
	)
	return r.Intersect(image.Rect(0, 0, l.Width, l.Height))
}

func writeTile(img *image.RGBA, k pyramid.TileKey, path string, quality int) error {
	l := pyramid.Level{Index: k.Level, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	sub := img.SubImage(TileRect(k, l))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, sub, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return f.Close()
}

func writeInfo(dir string, p *pyramid.Pyramid) error {
	f, err := os.Create(filepath.Join(dir, pyramid.InfoFile))
	if err != nil {
		return err
	}
	if err := pyramid.WriteInfo(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func resize(img *image.RGBA, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
