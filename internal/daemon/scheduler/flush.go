package scheduler

import "time"

// FlushGate time-slices snapshot writes: a flush is allowed only when
// something changed and at least Interval has passed since the last one.
type FlushGate struct {
	Interval time.Duration

	dirty     bool
	lastFlush time.Time
}

// NewFlushGate returns a gate whose interval starts counting at start.
func NewFlushGate(interval time.Duration, start time.Time) *FlushGate {
	return &FlushGate{Interval: interval, lastFlush: start}
}

// MarkDirty records an unflushed change.
func (g *FlushGate) MarkDirty() { g.dirty = true }

// Dirty reports whether there are unflushed changes.
func (g *FlushGate) Dirty() bool { return g.dirty }

// Due reports whether a flush may run at now.
func (g *FlushGate) Due(now time.Time) bool {
	return g.dirty && now.Sub(g.lastFlush) >= g.Interval
}

// Flushed records a successful flush. Failed flushes should not call it so
// the data stays dirty and is retried in the next window.
func (g *FlushGate) Flushed(now time.Time) {
	g.dirty = false
	g.lastFlush = now
}

// Attempted restarts the interval without clearing dirty, so a failing
// disk is retried once per window instead of on every loop iteration.
func (g *FlushGate) Attempted(now time.Time) {
	g.lastFlush = now
}
