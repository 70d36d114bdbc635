// Package scheduler decides when the daemon loop signals the renderer and
// when it writes snapshots to disk.
package scheduler

import "time"

// Debouncer coalesces bursts of mutations into one refresh signal. It fires
// once the burst has been quiet for Window, or once MaxDelay has passed since
// the first mutation of the burst, whichever comes first.
type Debouncer struct {
	Window   time.Duration
	MaxDelay time.Duration

	pending bool
	first   time.Time
	last    time.Time
}

// NewDebouncer returns a debouncer with the given quiet window and cap.
func NewDebouncer(window, maxDelay time.Duration) *Debouncer {
	return &Debouncer{Window: window, MaxDelay: maxDelay}
}

// Mark records a mutation at now.
func (d *Debouncer) Mark(now time.Time) {
	if !d.pending {
		d.pending = true
		d.first = now
	}
	d.last = now
}

// Pending reports whether a signal is owed.
func (d *Debouncer) Pending() bool { return d.pending }

// Due reports whether a signal should fire at now.
func (d *Debouncer) Due(now time.Time) bool {
	if !d.pending {
		return false
	}
	return now.Sub(d.last) >= d.Window || now.Sub(d.first) >= d.MaxDelay
}

// Fire clears the pending flag and resets the burst timer.
func (d *Debouncer) Fire() {
	d.pending = false
	d.first = time.Time{}
}

// Poll fires and returns true when a signal is due at now.
func (d *Debouncer) Poll(now time.Time) bool {
	if !d.Due(now) {
		return false
	}
	d.Fire()
	return true
}

// NextDeadline returns the earliest instant at which Due could become true.
func (d *Debouncer) NextDeadline() (time.Time, bool) {
	if !d.pending {
		return time.Time{}, false
	}
	quiet := d.last.Add(d.Window)
	capAt := d.first.Add(d.MaxDelay)
	if capAt.Before(quiet) {
		return capAt, true
	}
	return quiet, true
}
