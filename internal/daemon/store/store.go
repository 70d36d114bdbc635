// Package store owns the daemon's in-memory session state and knows how to
// persist it.
package store

import (
	"errors"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/aggregate"
	"github.com/grovetools/llm-bridge/pkg/protocol"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

// Store holds either the primary record or the session map. It is owned by
// a single goroutine and is not safe for concurrent use.
type Store struct {
	opts Options

	primary  snapshot.State
	sessions map[string]*snapshot.State
	current  string
	dirty    map[string]struct{}

	home   string
	logger *logrus.Entry
}

// New creates an empty store.
func New(opts Options) *Store {
	home, _ := os.UserHomeDir()
	return &Store{
		opts:     opts,
		primary:  snapshot.Default(),
		sessions: make(map[string]*snapshot.State),
		dirty:    make(map[string]struct{}),
		home:     home,
		logger:   logging.NewLogger("store"),
	}
}

// Mode returns the store's keying mode.
func (s *Store) Mode() Mode { return s.opts.Mode }

// Load seeds the store from disk: the primary snapshot in single mode, the
// live session files in session mode. A corrupt snapshot is replaced by
// defaults; other read errors are returned.
func (s *Store) Load(now time.Time) error {
	if s.opts.Mode == ModeSingle {
		st, err := snapshot.ReadOrDefault(s.opts.StatePath, now, s.opts.ActivityTimeout, s.opts.Format)
		if err != nil {
			if !errors.Is(err, snapshot.ErrCorrupt) {
				return err
			}
			s.logger.WithError(err).Warn("Primary snapshot is corrupt, starting from defaults")
			st = snapshot.Default()
		}
		s.primary = st
		return nil
	}

	live, err := aggregate.New(s.opts.SessionsDir, s.opts.Stale, s.opts.ActivityTimeout).WithFormat(s.opts.Format).Sessions(now)
	if err != nil {
		return err
	}
	var newest int64
	for i := range live {
		st := live[i]
		if st.SessionID == "" {
			continue
		}
		s.sessions[st.SessionID] = &st
		if st.LastActivityTime >= newest {
			newest = st.LastActivityTime
			s.current = st.SessionID
		}
	}
	return nil
}

// Apply routes msg to its record and mutates it. It reports whether any
// record changed; callers mark the change dirty and signal-pending.
func (s *Store) Apply(msg protocol.Message, now time.Time) bool {
	if s.opts.Mode == ModeSingle {
		return s.primary.Apply(msg, now, s.opts.Format)
	}

	id := s.route(msg)
	if id == "" {
		s.logger.WithField("kind", msg.Kind).Debug("Dropping message with no session to route to")
		return false
	}

	st, exists := s.sessions[id]
	if !exists {
		if msg.Kind == protocol.KindEvent && !msg.Event.Known() {
			return false
		}
		fresh := snapshot.Default()
		st = &fresh
	}
	if !st.Apply(msg, now, s.opts.Format) {
		return false
	}
	st.SessionID = id
	s.sessions[id] = st
	s.current = id
	s.dirty[id] = struct{}{}
	return true
}

// route picks the session a message belongs to: the scoped id, then the
// session_id inside a status payload, then the most recently mutated one.
func (s *Store) route(msg protocol.Message) string {
	if msg.SessionID != "" {
		return msg.SessionID
	}
	if msg.Kind == protocol.KindStatus {
		if p, err := snapshot.ParseStatus(msg.Payload); err == nil && p.SessionID != nil && *p.SessionID != "" {
			return *p.SessionID
		}
	}
	return s.current
}

// Primary returns the snapshot the bar reads.
func (s *Store) Primary(now time.Time) snapshot.State {
	if s.opts.Mode == ModeSingle {
		return s.primary
	}
	return s.Aggregate(now).Snapshot()
}

// Aggregate summarizes the live in-memory sessions.
func (s *Store) Aggregate(now time.Time) aggregate.Result {
	var live []snapshot.State
	for _, id := range s.sessionIDs() {
		st := *s.sessions[id]
		st.CheckActivityTimeout(now, s.opts.ActivityTimeout, s.opts.Format)
		if aggregate.Live(st, now, s.opts.Stale) {
			live = append(live, st)
		}
	}
	return aggregate.Compute(live, s.home)
}

// Session returns a copy of the record for id.
func (s *Store) Session(id string) (snapshot.State, bool) {
	st, ok := s.sessions[id]
	if !ok {
		return snapshot.State{}, false
	}
	return *st, true
}

// Len returns the number of in-memory sessions.
func (s *Store) Len() int { return len(s.sessions) }

func (s *Store) sessionIDs() []string {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush writes every changed session file and then the primary snapshot.
// On error nothing is marked clean, so the next window retries.
func (s *Store) Flush(now time.Time) error {
	if s.opts.Mode == ModeSingle {
		if s.primary.SessionID != "" && s.opts.SessionsDir != "" {
			if err := snapshot.WriteSessionFile(s.opts.SessionsDir, s.primary); err != nil {
				return err
			}
		}
		return snapshot.WriteAtomic(s.opts.StatePath, s.primary)
	}

	for id := range s.dirty {
		st, ok := s.sessions[id]
		if !ok {
			delete(s.dirty, id)
			continue
		}
		if err := snapshot.WriteSessionFile(s.opts.SessionsDir, *st); err != nil {
			return err
		}
		delete(s.dirty, id)
	}
	return snapshot.WriteAtomic(s.opts.StatePath, s.Primary(now))
}

// Evict drops in-memory sessions past the staleness threshold and returns
// how many were removed. Their files are left for the sweep.
func (s *Store) Evict(now time.Time) int {
	evicted := 0
	for id, st := range s.sessions {
		if aggregate.Stale(*st, now, s.opts.Stale) {
			delete(s.sessions, id)
			delete(s.dirty, id)
			if s.current == id {
				s.current = ""
			}
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Debug("Evicted stale sessions")
	}
	return evicted
}
