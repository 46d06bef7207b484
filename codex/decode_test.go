package codex

import (
	"testing"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
)

func TestDecodeThreadStarted(t *testing.T) {
	dec := &lineDecoder{}
	events := dec.DecodeLine([]byte(`{"type":"thread.started","thread_id":"th-1"}`))
	if len(events) != 0 {
		t.Errorf("thread.started produced events: %v", events)
	}
	if dec.threadID != "th-1" {
		t.Errorf("threadID = %q, want th-1", dec.threadID)
	}

	// A later announcement without an id must not clear the captured one.
	dec.DecodeLine([]byte(`{"type":"thread.started"}`))
	if dec.threadID != "th-1" {
		t.Errorf("threadID = %q after empty announcement", dec.threadID)
	}
}

func TestDecodeItemTextShapes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"direct text", `{"type":"item.completed","item":{"text":"direct"}}`, "direct"},
		{"message text", `{"type":"item.completed","item":{"message":{"text":"nested"}}}`, "nested"},
		{"content parts", `{"type":"item.completed","item":{"message":{"content":[{"text":"a"},{"text":"b"}]}}}`, "ab"},
		{"no text", `{"type":"item.started","item":{"kind":"command"}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := &lineDecoder{}
			events := dec.DecodeLine([]byte(tt.line))
			if tt.want == "" {
				if len(events) != 0 {
					t.Errorf("got %v, want none", events)
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			tok, ok := events[0].(agentstream.TokenEvent)
			if !ok || tok.Token != tt.want {
				t.Errorf("got %#v, want token %q", events[0], tt.want)
			}
		})
	}
}

func TestDecodeErrorShapes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"string error", `{"type":"error","error":"bad turn"}`, "bad turn"},
		{"object error", `{"type":"error","error":{"message":"over limit"}}`, "over limit"},
		{"empty error", `{"type":"error"}`, "unknown error"},
		{"turn failed", `{"type":"turn.failed"}`, "codex turn failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := &lineDecoder{}
			events := dec.DecodeLine([]byte(tt.line))
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			ev, ok := events[0].(agentstream.ErrorEvent)
			if !ok || ev.Message != tt.want {
				t.Errorf("got %#v, want error %q", events[0], tt.want)
			}
		})
	}
}

func TestDecodeNonJSONPreserved(t *testing.T) {
	dec := &lineDecoder{}
	events := dec.DecodeLine([]byte("raw diagnostic"))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	tok, ok := events[0].(agentstream.TokenEvent)
	if !ok || tok.Token != "raw diagnostic" {
		t.Errorf("got %#v", events[0])
	}
}

func TestParseBufferedOutput(t *testing.T) {
	output := `{"type":"thread.started","thread_id":"th-9"}
{"type":"item.started","item":{"kind":"command"}}
{"type":"item.completed","item":{"text":"part one "}}
not json
{"type":"item.completed","item":{"message":{"text":"part two"}}}`

	text, threadID := parseBufferedOutput(output)
	if text != "part one part two" {
		t.Errorf("text = %q", text)
	}
	if threadID != "th-9" {
		t.Errorf("threadID = %q, want th-9", threadID)
	}
}

func TestParseBufferedOutputEmpty(t *testing.T) {
	text, threadID := parseBufferedOutput("")
	if text != "" || threadID != "" {
		t.Errorf("got %q, %q", text, threadID)
	}
}
