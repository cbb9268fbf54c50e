//go:build darwin

package notify

import (
	"fmt"
	"strings"
)

func newPlatformNotifier() *commandNotifier {
	return &commandNotifier{bin: "osascript", args: osascriptArgs}
}

func osascriptArgs(title, message string, sound bool) []string {
	script := fmt.Sprintf("display notification %s with title %s subtitle %s",
		appleString(message), appleString(title), appleString(AppName))
	if sound {
		script += ` sound name "Glass"`
	}
	return []string{"-e", script}
}

var appleEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// appleString quotes s as an AppleScript string literal.
func appleString(s string) string {
	return `"` + appleEscaper.Replace(s) + `"`
}
