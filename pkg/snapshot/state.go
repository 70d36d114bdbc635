// Package snapshot holds the status record the bar renders and the pure
// transitions that mutate it. The daemon and the no-daemon fallback both
// go through these functions so they stay behaviourally identical.
package snapshot

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/grovetools/llm-bridge/pkg/protocol"
)

const (
	ActivityIdle     = "Idle"
	ActivityThinking = "Thinking"

	ClassIdle       = "idle"
	ClassThinking   = "thinking"
	ClassToolActive = "tool-active"

	AltIdle   = "idle"
	AltActive = "active"

	// DefaultFormat is the display template used when none is configured.
	DefaultFormat = "{activity} | ${cost:.2}"

	// UnknownTool labels a tool-start that named no tool.
	UnknownTool = "unknown"

	maxToolRunes  = 20
	keepToolRunes = 17
)

// State is one session's status record, serialized as the snapshot JSON.
type State struct {
	Text             string  `json:"text"`
	Tooltip          string  `json:"tooltip"`
	Class            string  `json:"class"`
	Alt              string  `json:"alt"`
	Percentage       int     `json:"percentage"`
	SessionID        string  `json:"session_id,omitempty"`
	Cwd              string  `json:"cwd,omitempty"`
	Model            string  `json:"model"`
	Activity         string  `json:"activity"`
	Cost             float64 `json:"cost"`
	InputTokens      uint64  `json:"input_tokens"`
	OutputTokens     uint64  `json:"output_tokens"`
	CacheRead        uint64  `json:"cache_read"`
	CacheWrite       uint64  `json:"cache_write"`
	LastActivityTime int64   `json:"last_activity_time"`
}

// Default returns the record of a session nothing has happened in yet.
func Default() State {
	return State{
		Text:     ActivityIdle,
		Class:    ClassIdle,
		Alt:      AltIdle,
		Activity: ActivityIdle,
	}
}

// Apply dispatches a decoded message. It reports whether the record changed;
// unknown events and malformed status payloads leave it untouched.
func (s *State) Apply(msg protocol.Message, now time.Time, format string) bool {
	switch msg.Kind {
	case protocol.KindEvent:
		return s.ApplyEvent(msg.Event, msg.Tool, now, format)
	case protocol.KindStatus:
		return s.ApplyStatus(msg.Payload, now, format)
	}
	return false
}

// ApplyEvent performs a lifecycle transition.
func (s *State) ApplyEvent(event protocol.EventType, tool string, now time.Time, format string) bool {
	switch event {
	case protocol.EventSubmit, protocol.EventToolEnd:
		s.Activity, s.Class, s.Alt = ActivityThinking, ClassThinking, AltActive
	case protocol.EventToolStart:
		if tool == "" {
			tool = UnknownTool
		}
		s.Activity, s.Class, s.Alt = TruncateTool(tool), ClassToolActive, AltActive
	case protocol.EventStop:
		s.Activity, s.Class, s.Alt = ActivityIdle, ClassIdle, AltIdle
	default:
		return false
	}
	s.touch(now, format)
	return true
}

// StatusPayload is the statusLine JSON the agent pipes to its status command.
type StatusPayload struct {
	SessionID *string `json:"session_id"`
	Cwd       *string `json:"cwd"`
	Model     *struct {
		ID          *string `json:"id"`
		DisplayName *string `json:"display_name"`
	} `json:"model"`
	Cost *struct {
		TotalCostUSD *float64 `json:"total_cost_usd"`
	} `json:"cost"`
	ContextWindow *struct {
		CurrentUsage *struct {
			InputTokens              *uint64 `json:"input_tokens"`
			OutputTokens             *uint64 `json:"output_tokens"`
			CacheCreationInputTokens *uint64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     *uint64 `json:"cache_read_input_tokens"`
		} `json:"current_usage"`
	} `json:"context_window"`
}

// ParseStatus decodes a status payload.
func ParseStatus(payload string) (StatusPayload, error) {
	var p StatusPayload
	err := json.Unmarshal([]byte(payload), &p)
	return p, err
}

// ModelName returns display_name, then id, then "Claude".
func (p StatusPayload) ModelName() string {
	if p.Model == nil {
		return ""
	}
	if p.Model.DisplayName != nil && *p.Model.DisplayName != "" {
		return *p.Model.DisplayName
	}
	if p.Model.ID != nil && *p.Model.ID != "" {
		return *p.Model.ID
	}
	return "Claude"
}

// TotalCost returns cost.total_cost_usd or 0.
func (p StatusPayload) TotalCost() float64 {
	if p.Cost == nil || p.Cost.TotalCostUSD == nil {
		return 0
	}
	return *p.Cost.TotalCostUSD
}

// ApplyStatus merges telemetry from a status payload. Activity, class and
// alt are never touched here.
func (s *State) ApplyStatus(payload string, now time.Time, format string) bool {
	p, err := ParseStatus(payload)
	if err != nil {
		return false
	}

	if p.Model != nil {
		s.Model = p.ModelName()
	}
	if p.Cost != nil {
		if cost := p.TotalCost(); cost >= 0 {
			s.Cost = cost
		}
	}
	if p.SessionID != nil {
		s.SessionID = *p.SessionID
	}
	if p.Cwd != nil {
		s.Cwd = *p.Cwd
	}
	if p.ContextWindow != nil && p.ContextWindow.CurrentUsage != nil {
		u := p.ContextWindow.CurrentUsage
		s.InputTokens = deref(u.InputTokens)
		s.OutputTokens = deref(u.OutputTokens)
		s.CacheRead = deref(u.CacheReadInputTokens)
		s.CacheWrite = deref(u.CacheCreationInputTokens)
	}

	s.touch(now, format)
	return true
}

// touch refreshes the activity timestamp without letting it go backwards
// and recomputes the derived fields.
func (s *State) touch(now time.Time, format string) {
	if ts := now.Unix(); ts > s.LastActivityTime {
		s.LastActivityTime = ts
	}
	s.Refresh(format)
}

// Refresh recomputes text and tooltip from the source fields.
func (s *State) Refresh(format string) {
	s.Text = s.ComputeText(format)
	s.Tooltip = s.ComputeTooltip()
}

// CheckActivityTimeout resets a non-idle activity older than timeout to
// Idle and re-renders text and tooltip with format (DefaultFormat when
// empty). A zero timestamp never times out. It reports whether it reset.
func (s *State) CheckActivityTimeout(now time.Time, timeout time.Duration, format string) bool {
	if s.Activity == ActivityIdle || s.LastActivityTime == 0 {
		return false
	}
	if now.Unix()-s.LastActivityTime <= int64(timeout/time.Second) {
		return false
	}
	s.Activity, s.Class, s.Alt = ActivityIdle, ClassIdle, AltIdle
	if format == "" {
		format = DefaultFormat
	}
	s.Refresh(format)
	return true
}

// TruncateTool shortens tool names longer than 20 characters to their first
// 17 characters followed by "...". Counting is by rune.
func TruncateTool(tool string) string {
	if utf8.RuneCountInString(tool) <= maxToolRunes {
		return tool
	}
	runes := []rune(tool)
	return string(runes[:keepToolRunes]) + "..."
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
