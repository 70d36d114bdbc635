package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/internal/daemon/collector"
	"github.com/grovetools/llm-bridge/pkg/aggregate"
)

// AggregateEngine keeps the primary snapshot equal to the aggregate of the
// session files written by other processes.
type AggregateEngine struct {
	agg        *aggregate.Aggregator
	statePath  string
	signaler   Signaler
	collectors []collector.Collector
	now        func() time.Time
	logger     *logrus.Entry
}

// NewAggregateEngine creates an engine publishing agg's result to statePath.
func NewAggregateEngine(agg *aggregate.Aggregator, statePath string, sig Signaler, logger *logrus.Entry) *AggregateEngine {
	return &AggregateEngine{
		agg:       agg,
		statePath: statePath,
		signaler:  sig,
		now:       time.Now,
		logger:    logger,
	}
}

// Register adds a collector to the engine.
func (e *AggregateEngine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Refresh handles one trigger. A change sweeps, recomputes, writes and
// signals; a periodic sweep only removes stale files, whose removal the
// watcher then reports as a change.
func (e *AggregateEngine) Refresh(ctx context.Context, reason collector.Reason) error {
	now := e.now()
	if _, err := e.agg.Sweep(now); err != nil {
		e.logger.WithError(err).Warn("Session sweep failed")
	}
	if reason == collector.ReasonSweep {
		return nil
	}

	res, err := e.agg.Aggregate(now)
	if err != nil {
		return err
	}
	if err := aggregate.Write(e.statePath, res); err != nil {
		return err
	}
	e.logger.WithFields(logrus.Fields{
		"sessions": res.Sessions,
		"cost":     res.TotalCost,
	}).Debug("Published aggregate")

	if _, err := e.signaler.Signal(ctx); err != nil && !bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound) {
		e.logger.WithError(err).Warn("Failed to signal renderer")
	}
	return nil
}

// Start publishes an initial aggregate, then runs every collector and a
// single consumer that serializes refreshes. It blocks until ctx is
// cancelled or a collector fails.
func (e *AggregateEngine) Start(ctx context.Context) error {
	if err := e.Refresh(ctx, collector.ReasonChange); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	triggers := make(chan collector.Reason, 16)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case r := <-triggers:
				if err := e.Refresh(gctx, r); err != nil {
					e.logger.WithError(err).WithField("reason", r).Warn("Aggregate refresh failed")
				}
			}
		}
	})

	for _, c := range e.collectors {
		g.Go(func() error {
			e.logger.WithField("collector", c.Name()).Info("Starting collector")
			if err := c.Run(gctx, triggers); err != nil {
				e.logger.WithField("collector", c.Name()).WithError(err).Error("Collector failed")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
