// Package collector provides the background workers of aggregate mode.
package collector

import (
	"context"
)

// Reason says why a collector asked for a refresh.
type Reason int

const (
	// ReasonChange means session files were created, written or removed.
	ReasonChange Reason = iota + 1
	// ReasonSweep is the periodic stale-file cleanup.
	ReasonSweep
)

func (r Reason) String() string {
	switch r {
	case ReasonChange:
		return "change"
	case ReasonSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Collector is a background worker that watches for work and emits
// triggers.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run blocks until ctx is cancelled, sending triggers as work appears.
	Run(ctx context.Context, triggers chan<- Reason) error
}
