package notify

import (
	"errors"

	"golang.org/x/sys/unix"
)

// GlibcSIGRTMIN is the first real-time signal glibc hands to applications;
// it keeps 32 and 33 for its threading library. musl keeps 34 as well, so a
// renderer linked against it counts from 35.
const GlibcSIGRTMIN = 34

// SignalNotifier sends SIGRTMIN+Offset, the refresh signal Waybar custom
// modules subscribe to with "signal": Offset. Base is SIGRTMIN as the
// renderer's libc defines it; zero means glibc.
type SignalNotifier struct {
	Base   int
	Offset int
}

// Number is the raw signal number sent to the renderer.
func (n SignalNotifier) Number() int {
	base := n.Base
	if base == 0 {
		base = GlibcSIGRTMIN
	}
	return base + n.Offset
}

func (n SignalNotifier) Notify(pid int) (Result, error) {
	err := unix.Kill(pid, unix.Signal(n.Number()))
	switch {
	case err == nil:
		return Delivered, nil
	case errors.Is(err, unix.ESRCH):
		return NotFound, nil
	default:
		return NotFound, err
	}
}

// Platform returns the notifier for this OS. statePath is unused on Linux.
func Platform(base, offset int, statePath string) Notifier {
	return SignalNotifier{Base: base, Offset: offset}
}

// NeedsProcess reports whether Platform's notifier targets a renderer PID.
const NeedsProcess = true
