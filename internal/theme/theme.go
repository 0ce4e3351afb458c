package theme

import (
	"fmt"
	"image/color"
	"reflect"
	"strings"
)

// Theme defines the colours used by the viewer window.
type Theme struct {
	Name string

	// Surface
	Background color.RGBA // Outside the image extent
	Foreground color.RGBA

	// Image area
	CheckerLight color.RGBA // Backdrop behind tiles that have not loaded yet
	CheckerDark  color.RGBA
	PendingTile  color.RGBA // Tint over tiles whose fetch is outstanding

	// Status bar
	StatusBackground color.RGBA
	StatusText       color.RGBA
}

// Default returns the built-in dark theme.
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{24, 24, 24, 255},
		Foreground:       color.RGBA{230, 230, 230, 255},
		CheckerLight:     color.RGBA{64, 64, 64, 255},
		CheckerDark:      color.RGBA{48, 48, 48, 255},
		PendingTile:      color.RGBA{90, 90, 90, 96},
		StatusBackground: color.RGBA{0, 0, 0, 180},
		StatusText:       color.RGBA{230, 230, 230, 255},
	}
}

var rgbaType = reflect.TypeOf(color.RGBA{})

// Set assigns a colour field by case-insensitive name. Name sets the theme
// name. Unknown keys are ignored for forward compatibility.
func (t *Theme) Set(key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !strings.EqualFold(f.Name, key) || f.Type != rgbaType {
			continue
		}
		col, err := ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		val.Field(i).Set(reflect.ValueOf(col))
		return nil
	}
	return nil
}

// Field is one named colour of a theme.
type Field struct {
	Name  string
	Color color.RGBA
}

// Fields lists the colour fields in declaration order.
func (t *Theme) Fields() []Field {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var out []Field
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type != rgbaType {
			continue
		}
		out = append(out, Field{Name: typ.Field(i).Name, Color: val.Field(i).Interface().(color.RGBA)})
	}
	return out
}
