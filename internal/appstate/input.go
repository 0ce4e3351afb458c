package appstate

import (
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/deepzoom/internal/session"
)

// panStep is how far one arrow key press moves the view, in surface pixels.
const panStep = 64

type command int

const (
	cmdNone command = iota
	cmdRepaint
	cmdSave
	cmdCopyView
	cmdCopyLocation
	cmdPasteLocation
	cmdQuit
)

// controller turns window input into session commands. It runs on the event
// goroutine together with the session.
type controller struct {
	sess *session.Session

	touching bool
	touchSeq touch.Sequence
}

func (c *controller) handleMouse(e mouse.Event) command {
	if e.Button.IsWheel() {
		if e.Direction == mouse.DirRelease {
			return cmdNone
		}
		switch e.Button {
		case mouse.ButtonWheelUp:
			return repaintIf(c.sess.ZoomIn())
		case mouse.ButtonWheelDown:
			return repaintIf(c.sess.ZoomOut())
		}
		return cmdNone
	}
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		c.sess.OnDragStart(float64(e.X), float64(e.Y))
	case e.Direction == mouse.DirNone:
		return repaintIf(c.sess.OnDragMove(float64(e.X), float64(e.Y)))
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		// Redraws at full quality now that the view has settled.
		return repaintIf(c.sess.OnDragEnd())
	}
	return cmdNone
}

// handleTouch follows a single touch sequence as a drag.
func (c *controller) handleTouch(e touch.Event) command {
	switch e.Type {
	case touch.TypeBegin:
		if c.touching {
			return cmdNone
		}
		c.touching = true
		c.touchSeq = e.Sequence
		c.sess.OnDragStart(float64(e.X), float64(e.Y))
	case touch.TypeMove:
		if c.touching && e.Sequence == c.touchSeq {
			return repaintIf(c.sess.OnDragMove(float64(e.X), float64(e.Y)))
		}
	case touch.TypeEnd:
		if c.touching && e.Sequence == c.touchSeq {
			c.touching = false
			return repaintIf(c.sess.OnDragEnd())
		}
	}
	return cmdNone
}

func (c *controller) handleKey(e key.Event) command {
	if e.Direction == key.DirRelease {
		return cmdNone
	}
	switch e.Code {
	case key.CodeEqualSign, key.CodeKeypadPlusSign:
		return repaintIf(c.sess.ZoomIn())
	case key.CodeHyphenMinus, key.CodeKeypadHyphenMinus:
		return repaintIf(c.sess.ZoomOut())
	case key.Code0, key.CodeKeypad0, key.CodeHome:
		return repaintIf(c.sess.ResetZoom())
	case key.CodeLeftArrow:
		return repaintIf(c.sess.PanBy(-panStep, 0))
	case key.CodeRightArrow:
		return repaintIf(c.sess.PanBy(panStep, 0))
	case key.CodeUpArrow:
		return repaintIf(c.sess.PanBy(0, -panStep))
	case key.CodeDownArrow:
		return repaintIf(c.sess.PanBy(0, panStep))
	case key.CodeEscape:
		return cmdQuit
	}
	if e.Direction != key.DirPress || e.Modifiers&^key.ModShift != 0 {
		return cmdNone
	}
	switch e.Rune {
	case '+':
		return repaintIf(c.sess.ZoomIn())
	case 's':
		return cmdSave
	case 'c':
		return cmdCopyView
	case 'l':
		return cmdCopyLocation
	case 'v':
		return cmdPasteLocation
	case 'q':
		return cmdQuit
	}
	return cmdNone
}

func repaintIf(changed bool) command {
	if changed {
		return cmdRepaint
	}
	return cmdNone
}
