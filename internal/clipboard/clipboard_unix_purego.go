//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// readTimeout bounds how long ReadText waits for the selection owner.
const readTimeout = 2 * time.Second

var owner *selectionOwner

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		owner, initErr = newSelectionOwner()
	})
	return initErr
}

// WriteImage publishes img as PNG. The clipboard keeps serving it until
// another client takes ownership of the selection.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return owner.offer(map[xproto.Atom][]byte{owner.atoms.png: data})
}

// WriteText publishes text.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.offer(map[xproto.Atom][]byte{owner.atoms.utf8: []byte(text)})
}

// ReadText returns the text currently on the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := owner.convert(owner.atoms.utf8)
	if err != nil {
		data, err = owner.convert(xproto.AtomString)
	}
	if err != nil {
		return "", err
	}
	// Some STRING owners include the terminating NUL.
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	if len(data) == 0 {
		return "", errors.New("clipboard does not contain text data")
	}
	return string(data), nil
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

// selectionOwner owns CLIPBOARD through a hidden window and answers
// conversion requests from its offers, keyed by target atom.
type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atomSet

	mu     sync.RWMutex
	offers map[xproto.Atom][]byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange|xproto.EventMaskStructureNotify)
	if err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window, atoms: atoms}
	go o.serve()
	return o, nil
}

func hiddenWindow(conn *xgb.Conn, mask uint32) (xproto.Window, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return 0, err
	}
	return window, nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "DEEPZOOM_CLIPBOARD"}
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(name)), name)
	}
	atoms := make([]xproto.Atom, len(names))
	for i, c := range cookies {
		reply, err := c.Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{
		clipboard: atoms[0],
		targets:   atoms[1],
		utf8:      atoms[2],
		textPlain: atoms[3],
		png:       atoms[4],
		property:  atoms[5],
	}, nil
}

// offer replaces what the clipboard serves and claims the selection.
func (o *selectionOwner) offer(data map[xproto.Atom][]byte) error {
	o.mu.Lock()
	o.offers = data
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

// lookup resolves a requested target to the stored type and bytes. Text is
// served under every text target.
func (o *selectionOwner) lookup(target xproto.Atom) (xproto.Atom, []byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	switch target {
	case xproto.AtomString, o.atoms.textPlain:
		target = o.atoms.utf8
	}
	data, ok := o.offers[target]
	return target, data, ok && len(data) > 0
}

func (o *selectionOwner) targetList() []byte {
	o.mu.RLock()
	defer o.mu.RUnlock()
	targets := []xproto.Atom{o.atoms.targets}
	for atom := range o.offers {
		targets = append(targets, atom)
		if atom == o.atoms.utf8 {
			targets = append(targets, xproto.AtomString, o.atoms.textPlain)
		}
	}
	buf := make([]byte, len(targets)*4)
	for i, atom := range targets {
		xgb.Put32(buf[i*4:], uint32(atom))
	}
	return buf
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.offers = nil
			o.mu.Unlock()
		}
	}
}

func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	if e.Target == o.atoms.targets {
		data := o.targetList()
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(data)/4), data)
	} else if typ, data, ok := o.lookup(e.Target); ok {
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			typ, 8, uint32(len(data)), data)
	} else {
		property = xproto.AtomNone
	}
	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// convert asks the current owner for target on a separate connection, so
// the serve loop keeps answering when this process owns the selection.
func (o *selectionOwner) convert(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange)
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	err = xproto.ConvertSelectionChecked(conn, window, o.atoms.clipboard, target, o.atoms.property, xproto.TimeCurrentTime).Check()
	if err != nil {
		return nil, err
	}

	notified := make(chan xproto.SelectionNotifyEvent, 1)
	go func() {
		for {
			ev, err := conn.WaitForEvent()
			if err != nil {
				return
			}
			if e, ok := ev.(xproto.SelectionNotifyEvent); ok {
				notified <- e
				return
			}
		}
	}()
	select {
	case e := <-notified:
		if e.Property == xproto.AtomNone {
			return nil, errors.New("clipboard target unavailable")
		}
		reply, err := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), reply.Value...), nil
	case <-time.After(readTimeout):
		return nil, errors.New("clipboard owner did not answer")
	}
}
