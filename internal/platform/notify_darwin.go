//go:build darwin

package platform

import "os/exec"

// notifyScript reads its strings from argv so nothing needs AppleScript
// quoting.
const notifyScript = `on run argv
	display notification (item 2 of argv) with title (item 1 of argv) subtitle (item 3 of argv)
end run`

// Notify posts to Notification Center through osascript.
func Notify(title, body string, opts Options) error {
	return exec.Command("osascript", "-e", notifyScript, title, body, opts.appName()).Run()
}
