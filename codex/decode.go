package codex

import (
	"encoding/json"
	"strings"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
)

// threadEvent is the superset of fields across the CLI's item/thread event
// vocabulary. Error can be a bare string or an object with a message field,
// so it is kept raw and interpreted by errorMessage.
type threadEvent struct {
	Type     string          `json:"type"`
	ThreadID string          `json:"thread_id"`
	Item     json.RawMessage `json:"item"`
	Error    json.RawMessage `json:"error"`
}

// itemPayload carries the shapes item text can hide in.
type itemPayload struct {
	Text    string `json:"text"`
	Message struct {
		Text    string `json:"text"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// extractItemText pulls best-effort text out of an item payload: a direct
// text field, else the nested message text, else the concatenation of the
// message content parts. Malformed payloads yield "".
func extractItemText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var item itemPayload
	if err := json.Unmarshal(raw, &item); err != nil {
		return ""
	}
	if item.Text != "" {
		return item.Text
	}
	if item.Message.Text != "" {
		return item.Message.Text
	}
	var sb strings.Builder
	for _, part := range item.Message.Content {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// errorMessage interprets an error payload that is either a JSON string or
// an object carrying a message field.
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return "unknown error"
}

// lineDecoder translates the item/thread vocabulary into normalized events.
// The thread id announced by thread.started produces no caller-visible event;
// it is captured for the session registry.
type lineDecoder struct {
	threadID string
}

func (d *lineDecoder) DecodeLine(raw []byte) []agentstream.Event {
	var ev threadEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		// Non-JSON diagnostic output is preserved, not discarded.
		return []agentstream.Event{agentstream.TokenEvent{Token: string(raw)}}
	}

	switch {
	case ev.Type == "thread.started":
		if ev.ThreadID != "" {
			d.threadID = ev.ThreadID
		}

	case strings.HasPrefix(ev.Type, "item."):
		if text := extractItemText(ev.Item); text != "" {
			return []agentstream.Event{agentstream.TokenEvent{Token: text}}
		}

	case ev.Type == "error":
		return []agentstream.Event{agentstream.ErrorEvent{Message: errorMessage(ev.Error)}}

	case ev.Type == "turn.failed":
		return []agentstream.Event{agentstream.ErrorEvent{Message: "codex turn failed"}}
	}

	return nil
}
