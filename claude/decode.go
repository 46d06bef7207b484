package claude

import (
	"encoding/json"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
)

// streamLine is the superset of fields across the CLI's stream-json event
// vocabulary. Unknown fields are ignored; missing fields decode to zero
// values, so extraction degrades to "no text" instead of failing.
type streamLine struct {
	Type    string `json:"type"`
	Message struct {
		Content []contentBlock `json:"content"`
	} `json:"message"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Text   string `json:"text"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// lineDecoder translates the delta/assistant vocabulary into normalized
// events. It is per-turn stateful: once any token has been emitted, the
// final `result` summary is suppressed so text already streamed as deltas is
// not double-counted.
type lineDecoder struct {
	sawToken bool
}

func (d *lineDecoder) DecodeLine(raw []byte) []agentstream.Event {
	var line streamLine
	if err := json.Unmarshal(raw, &line); err != nil {
		// Non-JSON diagnostic output is preserved, not discarded.
		d.sawToken = true
		return []agentstream.Event{agentstream.TokenEvent{Token: string(raw)}}
	}

	switch line.Type {
	case "assistant":
		var events []agentstream.Event
		for _, block := range line.Message.Content {
			if block.Type == "text" && block.Text != "" {
				d.sawToken = true
				events = append(events, agentstream.TokenEvent{Token: block.Text})
			}
		}
		return events

	case "content_block_delta":
		if line.Delta.Type == "text_delta" && line.Delta.Text != "" {
			d.sawToken = true
			return []agentstream.Event{agentstream.TokenEvent{Token: line.Delta.Text}}
		}

	case "text":
		if line.Text != "" {
			d.sawToken = true
			return []agentstream.Event{agentstream.TokenEvent{Token: line.Text}}
		}

	case "result":
		// Emitted only when no delta or assistant text preceded it.
		if line.Result != "" && !d.sawToken {
			d.sawToken = true
			return []agentstream.Event{agentstream.TokenEvent{Token: line.Result}}
		}

	case "error":
		msg := line.Error
		if msg == "" {
			msg = "unknown error"
		}
		return []agentstream.Event{agentstream.ErrorEvent{Message: msg}}
	}

	return nil
}

// parseBufferedOutput extracts the answer from buffered CLI stdout. The CLI
// is asked for structured JSON but some configurations emit plain text
// anyway, so a decode failure (or a missing result field) falls back to the
// raw trimmed output verbatim.
func parseBufferedOutput(output string) string {
	var payload struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil || payload.Result == nil {
		return output
	}
	return *payload.Result
}
