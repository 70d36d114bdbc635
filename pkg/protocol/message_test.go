package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Message
		wantOK bool
	}{
		{
			name:   "submit",
			input:  "EVENT:submit",
			want:   Message{Kind: KindEvent, Event: EventSubmit},
			wantOK: true,
		},
		{
			name:   "tool start with tool",
			input:  "EVENT:tool-start:Read",
			want:   Message{Kind: KindEvent, Event: EventToolStart, Tool: "Read"},
			wantOK: true,
		},
		{
			name:   "tool keeps later colons",
			input:  "EVENT:tool-start:mcp:server:tool",
			want:   Message{Kind: KindEvent, Event: EventToolStart, Tool: "mcp:server:tool"},
			wantOK: true,
		},
		{
			name:   "session scoped event",
			input:  "EVENT/abc-123:stop",
			want:   Message{Kind: KindEvent, SessionID: "abc-123", Event: EventStop},
			wantOK: true,
		},
		{
			name:   "status payload verbatim",
			input:  `STATUS:{"model":{"id":"x"},"a":"b:c"}`,
			want:   Message{Kind: KindStatus, Payload: `{"model":{"id":"x"},"a":"b:c"}`},
			wantOK: true,
		},
		{
			name:  "invalid utf-8 in tool",
			input: "EVENT:tool-start:Re\xffad",
		},
		{
			name:  "invalid utf-8 in status payload",
			input: "STATUS:{\"cwd\":\"\xc3\x28\"}",
		},
		{
			name:   "session scoped status",
			input:  "STATUS/s1:{}",
			want:   Message{Kind: KindStatus, SessionID: "s1", Payload: "{}"},
			wantOK: true,
		},
		{
			name:   "empty status payload",
			input:  "STATUS:",
			want:   Message{Kind: KindStatus},
			wantOK: true,
		},
		{
			name:   "unknown event type still decodes",
			input:  "EVENT:reboot",
			want:   Message{Kind: KindEvent, Event: "reboot"},
			wantOK: true,
		},
		{name: "garbage", input: "hello", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "lowercase prefix", input: "event:submit", wantOK: false},
		{name: "missing colon", input: "EVENTsubmit", wantOK: false},
		{name: "empty event", input: "EVENT:", wantOK: false},
		{name: "empty session", input: "EVENT/:submit", wantOK: false},
		{name: "session without body", input: "STATUS/abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEncodeDecodeAgree(t *testing.T) {
	messages := []Message{
		NewEvent("", EventSubmit, ""),
		NewEvent("", EventToolStart, "Bash"),
		NewEvent("sess", EventToolEnd, ""),
		NewStatus("", `{"cost":{"total_cost_usd":1.5}}`),
		NewStatus("sess", "{}"),
	}
	for _, m := range messages {
		got, ok := Decode(m.Encode())
		assert.True(t, ok, m.Encode())
		assert.Equal(t, m, got)
	}

	assert.Equal(t, "EVENT:tool-start:Read", NewEvent("", EventToolStart, "Read").Encode())
	assert.Equal(t, "", Message{}.Encode())
}

func TestEventTypeKnown(t *testing.T) {
	assert.True(t, EventSubmit.Known())
	assert.True(t, EventStop.Known())
	assert.False(t, EventType("reboot").Known())
}
