// Package protocol defines the datagram messages agent hooks send to the
// bridge daemon.
//
// Wire forms, one message per datagram:
//
//	EVENT:<type>[:<tool>]
//	EVENT/<session-id>:<type>[:<tool>]
//	STATUS:<payload>
//	STATUS/<session-id>:<payload>
package protocol

import (
	"strings"
	"unicode/utf8"
)

// Kind distinguishes the two message families.
type Kind int

const (
	KindEvent Kind = iota + 1
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// EventType is a lifecycle event reported by the agent.
type EventType string

const (
	EventSubmit    EventType = "submit"
	EventToolStart EventType = "tool-start"
	EventToolEnd   EventType = "tool-end"
	EventStop      EventType = "stop"
)

// Known reports whether t is one of the four lifecycle events.
func (t EventType) Known() bool {
	switch t {
	case EventSubmit, EventToolStart, EventToolEnd, EventStop:
		return true
	}
	return false
}

// Message is a decoded datagram.
type Message struct {
	Kind      Kind
	SessionID string
	Event     EventType
	Tool      string
	Payload   string
}

// NewEvent builds an event message. tool may be empty.
func NewEvent(sessionID string, event EventType, tool string) Message {
	return Message{Kind: KindEvent, SessionID: sessionID, Event: event, Tool: tool}
}

// NewStatus builds a status message carrying an opaque payload.
func NewStatus(sessionID, payload string) Message {
	return Message{Kind: KindStatus, SessionID: sessionID, Payload: payload}
}

const (
	eventPrefix  = "EVENT"
	statusPrefix = "STATUS"
)

// Encode renders m in its wire form.
func (m Message) Encode() string {
	var b strings.Builder
	switch m.Kind {
	case KindEvent:
		b.WriteString(eventPrefix)
	case KindStatus:
		b.WriteString(statusPrefix)
	default:
		return ""
	}
	if m.SessionID != "" {
		b.WriteByte('/')
		b.WriteString(m.SessionID)
	}
	b.WriteByte(':')

	if m.Kind == KindStatus {
		b.WriteString(m.Payload)
		return b.String()
	}
	b.WriteString(string(m.Event))
	if m.Tool != "" {
		b.WriteByte(':')
		b.WriteString(m.Tool)
	}
	return b.String()
}

// Decode parses one datagram. It never fails loudly: anything that is not
// a recognisable message yields ok == false and should be dropped,
// including anything that is not valid UTF-8.
// Unknown event types decode successfully; applying them is a no-op.
func Decode(s string) (Message, bool) {
	if !utf8.ValidString(s) {
		return Message{}, false
	}

	var (
		kind Kind
		rest string
	)
	switch {
	case strings.HasPrefix(s, eventPrefix):
		kind, rest = KindEvent, s[len(eventPrefix):]
	case strings.HasPrefix(s, statusPrefix):
		kind, rest = KindStatus, s[len(statusPrefix):]
	default:
		return Message{}, false
	}

	var sessionID string
	switch {
	case strings.HasPrefix(rest, ":"):
		rest = rest[1:]
	case strings.HasPrefix(rest, "/"):
		sid, body, found := strings.Cut(rest[1:], ":")
		if !found || sid == "" {
			return Message{}, false
		}
		sessionID, rest = sid, body
	default:
		return Message{}, false
	}

	if kind == KindStatus {
		return NewStatus(sessionID, rest), true
	}

	event, tool, _ := strings.Cut(rest, ":")
	if event == "" {
		return Message{}, false
	}
	return NewEvent(sessionID, EventType(event), tool), true
}
