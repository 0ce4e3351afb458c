//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// toastScript builds the PowerShell that shows one toast. The image template
// is used only when an icon is available.
func toastScript(title, body string, opts Options) string {
	var sb strings.Builder
	sb.WriteString("[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=Windows Runtime] > $null\n")
	kind := "ToastText02"
	if opts.IconPath != "" {
		kind = "ToastImageAndText02"
	}
	fmt.Fprintf(&sb, "$xml = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::%s)\n", kind)
	fmt.Fprintf(&sb, "$lines = $xml.GetElementsByTagName('text')\n")
	fmt.Fprintf(&sb, "$lines.Item(0).AppendChild($xml.CreateTextNode(%s)) > $null\n", psQuote(title))
	fmt.Fprintf(&sb, "$lines.Item(1).AppendChild($xml.CreateTextNode(%s)) > $null\n", psQuote(body))
	if opts.IconPath != "" {
		fmt.Fprintf(&sb, "$xml.GetElementsByTagName('image').Item(0).SetAttribute('src', %s)\n", psQuote(opts.IconPath))
	}
	fmt.Fprintf(&sb, "$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)\n")
	fmt.Fprintf(&sb, "$toast.ExpirationTime = [DateTimeOffset]::Now.AddMilliseconds(%d)\n", opts.timeout().Milliseconds())
	fmt.Fprintf(&sb, "[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s).Show($toast)\n", psQuote(opts.appName()))
	return sb.String()
}

// Notify shows a toast through PowerShell.
func Notify(title, body string, opts Options) error {
	return exec.Command("powershell.exe", "-NoProfile", "-NonInteractive", "-Command", toastScript(title, body, opts)).Run()
}
