package platform

import "time"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender; empty means "deepzoom".
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout is how long the notification stays up; zero uses five seconds.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "deepzoom"
	}
	return o.AppName
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 5 * time.Second
	}
	return o.Timeout
}
