//go:build linux

package notify

func newPlatformNotifier() *commandNotifier {
	return &commandNotifier{bin: "notify-send", args: notifySendArgs}
}

// notifySendArgs marks sound alerts critical so they persist until
// dismissed. Whether they also play a sound is up to the daemon.
func notifySendArgs(title, message string, sound bool) []string {
	args := make([]string, 0, 5)
	if sound {
		args = append(args, "--urgency=critical")
	}
	return append(args, "--app-name="+AppName, "--category=presence", title, message)
}
