//go:build !linux

package notify

// Platform returns the notifier for this OS. Without real-time signals the
// renderer is expected to poll or watch the snapshot, so touching its mtime
// is the refresh hint.
func Platform(base, offset int, statePath string) Notifier {
	return TouchNotifier{Path: statePath}
}

// NeedsProcess reports whether Platform's notifier targets a renderer PID.
const NeedsProcess = false
