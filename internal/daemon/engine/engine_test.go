package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/pkg/protocol"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) { c.t = c.t.Add(d) }

type timedMessage struct {
	at  time.Time
	msg protocol.Message
}

// scriptedReceiver hands out each message once the clock reaches its time.
type scriptedReceiver struct {
	clock *fakeClock
	queue []timedMessage
}

func (r *scriptedReceiver) Receive() (protocol.Message, bool, error) {
	if len(r.queue) == 0 || r.clock.now().Before(r.queue[0].at) {
		return protocol.Message{}, false, nil
	}
	m := r.queue[0].msg
	r.queue = r.queue[1:]
	return m, true, nil
}

type recordingSignaler struct {
	clock *fakeClock
	at    []time.Time
	err   error
}

func (s *recordingSignaler) Signal(context.Context) (int, error) {
	if s.clock != nil {
		s.at = append(s.at, s.clock.now())
	} else {
		s.at = append(s.at, time.Now())
	}
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l.WithField("component", "test")
}

var defaultTimings = Options{
	Debounce:    16 * time.Millisecond,
	MaxDebounce: 50 * time.Millisecond,
	Flush:       100 * time.Millisecond,
	Sweep:       time.Second,
}

type harness struct {
	clock  *fakeClock
	recv   *scriptedReceiver
	sig    *recordingSignaler
	engine *Engine
	opts   store.Options
}

func newHarness(t *testing.T, mode store.Mode, timings Options) *harness {
	t.Helper()
	dir := t.TempDir()
	opts := store.Options{
		Mode:            mode,
		Format:          "{activity} | ${cost:.2}",
		StatePath:       filepath.Join(dir, "llm_state.json"),
		SessionsDir:     filepath.Join(dir, "llm_sessions"),
		Stale:           300 * time.Second,
		ActivityTimeout: 60 * time.Second,
	}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	st := store.New(opts)
	require.NoError(t, st.Load(clock.now()))

	recv := &scriptedReceiver{clock: clock}
	sig := &recordingSignaler{clock: clock}
	e := New(st, recv, sig, timings, quietLogger()).WithClock(clock.now, clock.sleep)
	return &harness{clock: clock, recv: recv, sig: sig, engine: e, opts: opts}
}

func (h *harness) at(offset time.Duration, m protocol.Message) {
	h.recv.queue = append(h.recv.queue, timedMessage{at: h.start().Add(offset), msg: m})
}

var epoch = time.Unix(1_700_000_000, 0)

func (h *harness) start() time.Time { return epoch }

// runUntil steps the loop with 1ms ticks until the clock reaches offset.
func (h *harness) runUntil(offset time.Duration) {
	end := h.start().Add(offset)
	for h.clock.now().Before(end) {
		h.engine.Step(context.Background())
		h.clock.sleep(IdleSleep)
	}
}

func TestBurstCoalescesIntoOneSignal(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	for _, ms := range []int{0, 4, 8, 12} {
		h.at(time.Duration(ms)*time.Millisecond, protocol.NewEvent("", protocol.EventToolStart, "Read"))
	}

	h.runUntil(60 * time.Millisecond)

	require.Len(t, h.sig.at, 1)
	assert.Equal(t, 28*time.Millisecond, h.sig.at[0].Sub(h.start()))
}

func TestSteadyStreamIsSignalledWithinCap(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	var sent []time.Duration
	for ms := 0; ms < 300; ms += 5 {
		d := time.Duration(ms) * time.Millisecond
		sent = append(sent, d)
		h.at(d, protocol.NewStatus("", `{"cost":{"total_cost_usd":0.1}}`))
	}

	h.runUntil(400 * time.Millisecond)

	require.NotEmpty(t, h.sig.at)
	for _, d := range sent {
		mutation := h.start().Add(d)
		var signalled bool
		for _, s := range h.sig.at {
			if !s.Before(mutation) {
				assert.LessOrEqual(t, s.Sub(mutation), defaultTimings.MaxDebounce, "mutation at %s", d)
				signalled = true
				break
			}
		}
		assert.True(t, signalled, "mutation at %s never signalled", d)
	}
}

func TestFlushIsTimeSliced(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	h.at(10*time.Millisecond, protocol.NewEvent("", protocol.EventSubmit, ""))
	h.at(110*time.Millisecond, protocol.NewEvent("", protocol.EventToolStart, "Bash"))

	h.runUntil(50 * time.Millisecond)
	_, err := os.Stat(h.opts.StatePath)
	assert.True(t, os.IsNotExist(err), "no write before the first window closes")

	h.runUntil(105 * time.Millisecond)
	got, err := snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ActivityThinking, got.Activity)

	// The Bash mutation arrives 10ms after the last write and has to wait
	// for the next window.
	h.runUntil(150 * time.Millisecond)
	got, err = snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ActivityThinking, got.Activity)

	h.runUntil(205 * time.Millisecond)
	got, err = snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "Bash", got.Activity)
}

func TestMissingRendererDoesNotStopLoop(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	h.sig.err = bridgeerrors.ProcessNotFound("waybar")
	h.at(0, protocol.NewEvent("", protocol.EventSubmit, ""))
	h.at(40*time.Millisecond, protocol.NewEvent("", protocol.EventStop, ""))

	h.runUntil(200 * time.Millisecond)

	// 16ms and 56ms for the two events, 116ms once the 100ms flush lands.
	assert.Len(t, h.sig.at, 3)
	got, err := snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ActivityIdle, got.Activity)
}

func TestFlushFailureRetriesNextWindow(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	// A directory where the snapshot should go makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(h.opts.StatePath, "blocker"), 0755))
	h.at(0, protocol.NewEvent("", protocol.EventSubmit, ""))

	h.runUntil(150 * time.Millisecond)
	assert.True(t, h.engine.gate.Dirty())

	require.NoError(t, os.RemoveAll(h.opts.StatePath))
	h.runUntil(250 * time.Millisecond)
	assert.False(t, h.engine.gate.Dirty())
	got, err := snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ActivityThinking, got.Activity)
}

func TestSessionModeEvictsStaleSessions(t *testing.T) {
	timings := defaultTimings
	h := newHarness(t, store.ModeSessions, timings)
	h.at(0, protocol.NewEvent("a", protocol.EventSubmit, ""))

	h.runUntil(200 * time.Millisecond)
	require.Equal(t, 1, h.engine.Store().Len())

	// Jump past the staleness threshold, then let the sweep run.
	h.clock.t = h.clock.t.Add(301 * time.Second)
	for i := 0; i < 1200; i++ {
		h.engine.Step(context.Background())
		h.clock.sleep(IdleSleep)
	}

	assert.Equal(t, 0, h.engine.Store().Len())
	got, err := snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "Idle", got.Text)
}

// diskSignaler records the on-disk activity the renderer would see at each
// signal.
type diskSignaler struct {
	clock *fakeClock
	path  string
	seen  []string
	at    []time.Duration
}

func (s *diskSignaler) Signal(context.Context) (int, error) {
	activity := "<missing>"
	if st, err := snapshot.Read(s.path, s.clock.now(), time.Minute, ""); err == nil {
		activity = st.Activity
	}
	s.seen = append(s.seen, activity)
	s.at = append(s.at, s.clock.now().Sub(epoch))
	return 1, nil
}

func TestLastSignalFollowsLastFlush(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	sig := &diskSignaler{clock: h.clock, path: h.opts.StatePath}
	h.engine.signaler = sig
	h.at(200*time.Millisecond, protocol.NewEvent("", protocol.EventSubmit, ""))
	h.at(205*time.Millisecond, protocol.NewEvent("", protocol.EventStop, ""))

	h.runUntil(3 * time.Second)

	require.NotEmpty(t, sig.seen)
	// The signal at 221ms goes out while the disk still says Thinking; the
	// flush at 300ms has to be announced again.
	assert.Equal(t, snapshot.ActivityIdle, sig.seen[len(sig.seen)-1], "signals saw %v at %v", sig.seen, sig.at)
	assert.Equal(t, 316*time.Millisecond, sig.at[len(sig.at)-1])

	got, err := snapshot.Read(h.opts.StatePath, h.clock.now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ActivityIdle, got.Activity)
}

func TestFlushWithoutStaleSignalDoesNotResignal(t *testing.T) {
	h := newHarness(t, store.ModeSingle, defaultTimings)
	// Debounce longer than the flush window: the flush lands first and the
	// only signal already reads the final state.
	h.engine.debouncer.Window = 150 * time.Millisecond
	h.engine.debouncer.MaxDelay = 150 * time.Millisecond
	sig := &diskSignaler{clock: h.clock, path: h.opts.StatePath}
	h.engine.signaler = sig
	h.at(0, protocol.NewEvent("", protocol.EventToolStart, "Read"))

	h.runUntil(time.Second)

	assert.Equal(t, []string{"Read"}, sig.seen)
}

type errReceiver struct{ calls int }

func (r *errReceiver) Receive() (protocol.Message, bool, error) {
	r.calls++
	return protocol.Message{}, false, errors.New("boom")
}

func TestReceiveErrorsAreLoggedAndSkipped(t *testing.T) {
	clock := &fakeClock{t: epoch}
	opts := store.Options{Mode: store.ModeSingle, StatePath: filepath.Join(t.TempDir(), "s.json")}
	recv := &errReceiver{}
	e := New(store.New(opts), recv, &recordingSignaler{clock: clock}, defaultTimings, quietLogger()).
		WithClock(clock.now, clock.sleep)

	for i := 0; i < 5; i++ {
		e.Step(context.Background())
	}
	assert.Equal(t, 5, recv.calls)
}

func TestRunFlushesAndSignalsOnShutdown(t *testing.T) {
	dir := t.TempDir()
	opts := store.Options{
		Mode:            store.ModeSingle,
		Format:          "{activity}",
		StatePath:       filepath.Join(dir, "llm_state.json"),
		ActivityTimeout: time.Minute,
	}
	st := store.New(opts)
	require.NoError(t, st.Load(time.Now()))

	clock := &fakeClock{t: time.Now()}
	recv := &scriptedReceiver{clock: clock, queue: []timedMessage{
		{at: clock.t, msg: protocol.NewEvent("", protocol.EventToolStart, "Edit")},
	}}
	sig := &recordingSignaler{}
	// Long windows so only the shutdown path can publish.
	timings := Options{Debounce: time.Hour, MaxDebounce: time.Hour, Flush: time.Hour}
	e := New(st, recv, sig, timings, quietLogger()).WithClock(clock.now, clock.sleep)

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	e.sleep = func(time.Duration) {
		steps++
		if steps == 3 {
			cancel()
		}
	}
	require.NoError(t, e.Run(ctx))

	assert.Len(t, sig.at, 1)
	got, err := snapshot.Read(opts.StatePath, time.Now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "Edit", got.Text)
}
