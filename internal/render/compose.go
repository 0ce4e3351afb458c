// Package render composes a session's tiles into a frame buffer.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/deepzoom/internal/session"
	"github.com/example/deepzoom/internal/theme"
	"github.com/example/deepzoom/internal/viewport"
)

// Quality selects the interpolator used to scale tiles.
type Quality int

const (
	// Fast is used while the view is moving.
	Fast Quality = iota
	// Smooth is used for settled frames and snapshots.
	Smooth
)

func (q Quality) scaler() xdraw.Scaler {
	if q == Smooth {
		return xdraw.CatmullRom
	}
	return xdraw.ApproxBiLinear
}

// checkerSize is the edge length of one backdrop square in pixels.
const checkerSize = 16

// Frame is everything drawn for one paint.
type Frame struct {
	Tiles     []session.TileView
	ImageRect viewport.Rect
	Status    string
}

// FrameOf captures the current state of s.
func FrameOf(s *session.Session, status string) Frame {
	return Frame{Tiles: s.Tiles(), ImageRect: s.ImageRect(), Status: status}
}

// Compositor draws frames using a theme.
type Compositor struct {
	Theme   *theme.Theme
	Quality Quality
}

// NewCompositor returns a compositor for t; nil selects the default theme.
func NewCompositor(t *theme.Theme) *Compositor {
	if t == nil {
		t = theme.Default()
	}
	return &Compositor{Theme: t, Quality: Smooth}
}

// Draw paints f onto dst, covering all of dst.
func (c *Compositor) Draw(dst *image.RGBA, f Frame) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(c.Theme.Background), image.Point{}, draw.Src)

	drawChecker(dst, Round(f.ImageRect).Intersect(bounds), c.Theme.CheckerLight, c.Theme.CheckerDark)

	scaler := c.Quality.scaler()
	pending := image.NewUniform(c.Theme.PendingTile)
	for _, tv := range f.Tiles {
		r := Round(tv.Rect)
		if r.Empty() || !r.Overlaps(bounds) {
			continue
		}
		if tv.Visible && tv.Image != nil {
			scaler.Scale(dst, r, tv.Image, tv.Image.Bounds(), draw.Over, nil)
			continue
		}
		draw.Draw(dst, r.Intersect(bounds), pending, image.Point{}, draw.Over)
	}

	if f.Status != "" {
		drawStatus(dst, f.Status, c.Theme)
	}
}

// Snapshot composes f into a new image of the given size.
func (c *Compositor) Snapshot(f Frame, size image.Point) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	c.Draw(img, f)
	return img
}

// Round snaps a surface rectangle to whole pixels. Edges are rounded
// independently so that abutting rectangles stay abutting.
func Round(r viewport.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left+0.5)),
		int(math.Floor(r.Top+0.5)),
		int(math.Floor(r.Right()+0.5)),
		int(math.Floor(r.Bottom()+0.5)),
	)
}

func drawChecker(dst *image.RGBA, r image.Rectangle, light, dark color.RGBA) {
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y += checkerSize - y%checkerSize {
		for x := r.Min.X; x < r.Max.X; x += checkerSize - x%checkerSize {
			col := light
			if (x/checkerSize+y/checkerSize)%2 == 1 {
				col = dark
			}
			cell := image.Rect(x, y, x+checkerSize-x%checkerSize, y+checkerSize-y%checkerSize).Intersect(r)
			draw.Draw(dst, cell, image.NewUniform(col), image.Point{}, draw.Src)
		}
	}
}
