//go:build !darwin && !linux

package notify

// No desktop integration here; only the bell is available.
func newPlatformNotifier() Notifier {
	return nil
}
