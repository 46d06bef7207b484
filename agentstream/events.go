package agentstream

import "encoding/json"

// EventType discriminates between normalized event kinds.
type EventType int

const (
	// EventTypeToken carries a chunk of answer text.
	EventTypeToken EventType = iota

	// EventTypeError carries a non-fatal or fatal error message.
	EventTypeError

	// EventTypeDone terminates a streamed turn.
	EventTypeDone
)

// Event is the interface for all normalized events.
type Event interface {
	Type() EventType
}

// TokenEvent carries a chunk of answer text.
type TokenEvent struct {
	Token string
}

// Type returns the event type.
func (e TokenEvent) Type() EventType { return EventTypeToken }

// ErrorEvent carries an error message.
type ErrorEvent struct {
	Message string
}

// Type returns the event type.
func (e ErrorEvent) Type() EventType { return EventTypeError }

// DoneEvent terminates a streamed turn. It is always the last event.
type DoneEvent struct{}

// Type returns the event type.
func (e DoneEvent) Type() EventType { return EventTypeDone }

// wireEvent is the JSON shape of the canonical wire protocol.
type wireEvent struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// Marshal encodes an event into its canonical wire form.
func Marshal(ev Event) ([]byte, error) {
	var w wireEvent
	switch e := ev.(type) {
	case TokenEvent:
		w = wireEvent{Type: "token", Token: e.Token}
	case ErrorEvent:
		w = wireEvent{Type: "error", Error: e.Message}
	case DoneEvent:
		w = wireEvent{Type: "done"}
	}
	return json.Marshal(w)
}
