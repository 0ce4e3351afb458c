//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"fmt"
	"image"
	"runtime"
)

func unsupported() error {
	return fmt.Errorf("clipboard is not supported on %s", runtime.GOOS)
}

// WriteImage reports that the clipboard is unavailable.
func WriteImage(image.Image) error { return unsupported() }

// WriteText reports that the clipboard is unavailable.
func WriteText(string) error { return unsupported() }

// ReadText reports that the clipboard is unavailable.
func ReadText() (string, error) { return "", unsupported() }
