//go:build linux

package platform

import (
	"sync/atomic"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// lastID lets each notification replace the previous one instead of stacking
// a bubble per key press.
var lastID atomic.Uint32

// Notify posts to the session bus notification daemon.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant(opts.appName()),
		"urgency":       dbus.MakeVariant(byte(0)),
	}
	if opts.IconPath != "" {
		hints["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	var id uint32
	err = conn.Object(notifyDest, notifyPath).Call(notifyDest+".Notify", 0,
		opts.appName(), lastID.Load(), opts.IconPath, title, body,
		[]string{}, hints, int32(opts.timeout().Milliseconds()),
	).Store(&id)
	if err != nil {
		return err
	}
	lastID.Store(id)
	return nil
}
