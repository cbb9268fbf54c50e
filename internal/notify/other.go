//go:build !darwin && !linux

package notify

// No notification command on this platform; New falls back to a no-op.
func newPlatformNotifier() *commandNotifier {
	return nil
}
