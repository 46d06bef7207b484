// Package agentstream defines the normalized streaming event protocol shared
// by all agent CLI backends.
//
// Each backend wraps an external CLI process whose stdout is a stream of
// newline-delimited JSON with its own vocabulary (assistant/delta events for
// claude-style CLIs, item/thread events for codex-style CLIs). Backend line
// decoders translate those vocabularies into this package's three-event
// protocol:
//
//	{"type":"token","token":"<text>"}
//	{"type":"error","error":"<message>"}
//	{"type":"done"}
//
// A streamed turn emits zero or more TokenEvent values interleaved with zero
// or more ErrorEvent values, and is always closed by exactly one DoneEvent,
// whether the turn succeeded, produced no tokens, or failed mid-stream.
// Consumers must treat a stream whose last non-done event is an error as an
// incomplete answer; tokens already delivered are not revoked.
package agentstream
