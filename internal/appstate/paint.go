package appstate

import (
	"context"
	"image"
	"log"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/deepzoom/internal/render"
	"github.com/example/deepzoom/internal/theme"
)

// paintState is a copy of everything a frame needs, handed to the paint
// goroutine.
type paintState struct {
	size    image.Point
	frame   render.Frame
	theme   *theme.Theme
	quality render.Quality
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(st.size)
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	c := render.NewCompositor(st.theme)
	c.Quality = st.quality
	c.Draw(b.RGBA(), st.frame)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
