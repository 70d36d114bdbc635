package store

import "time"

// Mode selects how the store keys incoming messages.
type Mode int

const (
	// ModeSingle keeps one primary record regardless of session ids.
	ModeSingle Mode = iota
	// ModeSessions keeps one record per session; the primary snapshot is
	// their aggregate.
	ModeSessions
)

func (m Mode) String() string {
	if m == ModeSessions {
		return "sessions"
	}
	return "single"
}

// Options configures a Store.
type Options struct {
	Mode            Mode
	Format          string
	StatePath       string
	SessionsDir     string
	Stale           time.Duration
	ActivityTimeout time.Duration
}
