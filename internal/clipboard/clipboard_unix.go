//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"errors"
	"image"

	"golang.design/x/clipboard"
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	// The returned channel only reports losing ownership.
	_ = clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// WriteText publishes text.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	_ = clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// ReadText returns the text currently on the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	if data := clipboard.Read(clipboard.FmtText); len(data) > 0 {
		return string(data), nil
	}
	return "", errors.New("clipboard does not contain text data")
}
