package render

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/deepzoom/internal/theme"
	"github.com/example/deepzoom/internal/viewport"
)

// StatusBarHeight is the height of the strip drawn along the bottom edge.
const StatusBarHeight = 20

var (
	statusFaceOnce sync.Once
	statusFace     font.Face
)

func face() font.Face {
	statusFaceOnce.Do(func() {
		statusFace = basicfont.Face7x13
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		if fc, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 12, DPI: 72, Hinting: font.HintingFull}); err == nil {
			statusFace = fc
		}
	})
	return statusFace
}

// StatusText summarises the view for the status bar.
func StatusText(title string, s viewport.State, levels int, scale float64) string {
	text := fmt.Sprintf("level %d/%d  zoom %.0f%%  centre %.0f,%.0f", s.Level+1, levels, scale*100, s.CenterX, s.CenterY)
	if title != "" {
		text = title + "  " + text
	}
	return text
}

func drawStatus(dst *image.RGBA, text string, t *theme.Theme) {
	b := dst.Bounds()
	if b.Dy() < StatusBarHeight {
		return
	}
	bar := image.Rect(b.Min.X, b.Max.Y-StatusBarHeight, b.Max.X, b.Max.Y)
	draw.Draw(dst, bar, image.NewUniform(t.StatusBackground), image.Point{}, draw.Over)

	fc := face()
	m := fc.Metrics()
	baseline := bar.Min.Y + (StatusBarHeight+m.Ascent.Ceil()-m.Descent.Ceil())/2
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.StatusText), Face: fc, Dot: fixed.P(bar.Min.X+6, baseline)}
	d.DrawString(text)
}
