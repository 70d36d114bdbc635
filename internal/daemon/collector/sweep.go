package collector

import (
	"context"
	"time"
)

// SweepCollector asks for a stale-file sweep on a fixed interval.
type SweepCollector struct {
	interval time.Duration
}

// NewSweepCollector creates a SweepCollector.
// If interval is 0, defaults to 60 seconds.
func NewSweepCollector(interval time.Duration) *SweepCollector {
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &SweepCollector{interval: interval}
}

// Name returns the collector's name.
func (c *SweepCollector) Name() string { return "sweep" }

// Run emits ReasonSweep on every tick.
func (c *SweepCollector) Run(ctx context.Context, triggers chan<- Reason) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			select {
			case triggers <- ReasonSweep:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
