// Package engine runs the daemon's single-threaded event loop.
package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/internal/daemon/scheduler"
	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// IdleSleep is the pause at the end of every cycle.
const IdleSleep = time.Millisecond

// Receiver yields decoded messages without blocking.
type Receiver interface {
	Receive() (protocol.Message, bool, error)
}

// Signaler asks the renderer to re-read the snapshot.
type Signaler interface {
	Signal(ctx context.Context) (int, error)
}

// Sweeper removes stale session files.
type Sweeper interface {
	Sweep(now time.Time) (int, error)
}

// Options holds the loop timings.
type Options struct {
	Debounce    time.Duration
	MaxDebounce time.Duration
	Flush       time.Duration
	// Sweep is the eviction interval in session mode. Zero disables it.
	Sweep time.Duration
}

// Engine is the daemon runtime. Every field is owned by the goroutine
// calling Run or Step.
type Engine struct {
	store    *store.Store
	receiver Receiver
	signaler Signaler
	sweeper  Sweeper

	debouncer *scheduler.Debouncer
	gate      *scheduler.FlushGate

	// unflushedSignal is set when the renderer was signalled while the
	// disk still lagged memory. The next successful flush re-arms the
	// debouncer so the renderer reads the flushed state.
	unflushedSignal bool

	sweepEvery time.Duration
	nextSweep  time.Time

	now    func() time.Time
	sleep  func(time.Duration)
	logger *logrus.Entry
}

// New creates an Engine around a loaded store.
func New(st *store.Store, recv Receiver, sig Signaler, opts Options, logger *logrus.Entry) *Engine {
	e := &Engine{
		store:      st,
		receiver:   recv,
		signaler:   sig,
		debouncer:  scheduler.NewDebouncer(opts.Debounce, opts.MaxDebounce),
		sweepEvery: opts.Sweep,
		now:        time.Now,
		sleep:      time.Sleep,
		logger:     logger,
	}
	e.gate = scheduler.NewFlushGate(opts.Flush, e.now())
	return e
}

// WithClock replaces the time source. The flush gate restarts at the new
// clock's current time.
func (e *Engine) WithClock(now func() time.Time, sleep func(time.Duration)) *Engine {
	e.now = now
	if sleep != nil {
		e.sleep = sleep
	}
	e.gate = scheduler.NewFlushGate(e.gate.Interval, now())
	return e
}

// WithSweeper sets the session file sweeper used in session mode.
func (e *Engine) WithSweeper(s Sweeper) *Engine {
	e.sweeper = s
	return e
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Run loops until ctx is cancelled, then flushes pending state and signals
// once more so the last mutation reaches the renderer.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.WithField("mode", e.store.Mode()).Info("Event loop started")
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		default:
		}
		e.Step(ctx)
		e.sleep(IdleSleep)
	}
}

// Step runs one cycle: one receive attempt, apply, scheduler, flush gate
// and, in session mode, the periodic eviction.
func (e *Engine) Step(ctx context.Context) {
	msg, ok, err := e.receiver.Receive()
	if err != nil {
		e.logger.WithError(err).Warn("Socket receive failed")
	}
	if ok {
		e.handle(msg)
	}

	now := e.now()
	if e.debouncer.Poll(now) {
		e.unflushedSignal = e.gate.Dirty()
		e.signal(ctx)
	}

	if e.gate.Due(now) {
		e.flush(now)
	}

	e.evict(now)
}

func (e *Engine) handle(msg protocol.Message) {
	now := e.now()
	if !e.store.Apply(msg, now) {
		return
	}
	e.gate.MarkDirty()
	e.debouncer.Mark(now)
}

func (e *Engine) signal(ctx context.Context) {
	n, err := e.signaler.Signal(ctx)
	if err != nil {
		if bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound) {
			e.logger.Debug("No renderer to signal")
			return
		}
		e.logger.WithError(err).Warn("Failed to signal renderer")
		return
	}
	e.logger.WithField("instances", n).Trace("Signalled renderer")
}

func (e *Engine) flush(now time.Time) {
	if err := e.store.Flush(now); err != nil {
		e.gate.Attempted(now)
		e.logger.WithError(err).Warn("Snapshot flush failed, retrying next window")
		return
	}
	e.gate.Flushed(now)
	e.announceFlush(now)
}

// announceFlush re-arms the signal when the last one went out before the
// data it announced reached disk. A pending signal already fires after
// this flush and covers it.
func (e *Engine) announceFlush(now time.Time) {
	if !e.unflushedSignal {
		return
	}
	e.unflushedSignal = false
	if !e.debouncer.Pending() {
		e.debouncer.Mark(now)
	}
}

func (e *Engine) evict(now time.Time) {
	if e.store.Mode() != store.ModeSessions || e.sweepEvery <= 0 {
		return
	}
	if e.nextSweep.IsZero() {
		e.nextSweep = now.Add(e.sweepEvery)
		return
	}
	if now.Before(e.nextSweep) {
		return
	}
	e.nextSweep = now.Add(e.sweepEvery)

	if e.store.Evict(now) > 0 {
		// The aggregate lost members; republish it.
		e.gate.MarkDirty()
		e.debouncer.Mark(now)
	}
	if e.sweeper != nil {
		if _, err := e.sweeper.Sweep(now); err != nil {
			e.logger.WithError(err).Warn("Session sweep failed")
		}
	}
}

func (e *Engine) shutdown() {
	now := e.now()
	if e.gate.Dirty() {
		if err := e.store.Flush(now); err != nil {
			e.logger.WithError(err).Error("Final snapshot flush failed")
		} else {
			e.gate.Flushed(now)
		}
	}
	if e.debouncer.Pending() || e.unflushedSignal {
		e.unflushedSignal = false
		e.debouncer.Fire()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		e.signal(ctx)
	}
	e.logger.Info("Event loop stopped")
}
