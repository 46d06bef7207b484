// Package agent defines the backend-agnostic turn contract and the service
// that orchestrates turns against one backend: session lookup, new-vs-resume
// decision, process execution, and registry/history updates on success.
package agent

import (
	"context"
	"errors"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
)

// ErrNoResumeTarget reports a resume turn with no resolvable resume identity.
// It is a configuration error: no process is spawned.
var ErrNoResumeTarget = errors.New("resume requested without a resolvable session identity")

// TurnRequest describes one question/answer exchange with a backend.
type TurnRequest struct {
	// Question is the caller's raw question, before profile resolution.
	Question string

	// AgentType optionally selects a skill or instruction profile.
	AgentType string

	// SessionID is the logical session id. For new turns it is the identity
	// the backend must adopt; for resume turns it identifies the session.
	SessionID string

	// ResumeID is the resolved resume identity for resume turns: the
	// backend-native id when one is known, otherwise the session id.
	ResumeID string

	// IsNew marks the first turn of a conversation.
	IsNew bool
}

// TurnResult is the buffered outcome of a turn.
type TurnResult struct {
	// Text is the concatenation of all text the backend produced.
	Text string

	// NativeID is the backend-assigned resume identity learned during this
	// turn (e.g. a thread id), or empty when the backend has none.
	NativeID string
}

// Stream is a streamed turn in progress. Events delivers normalized events
// in stdout order, closed by exactly one done event.
type Stream struct {
	Events <-chan agentstream.Event

	// nativeID reports the backend-assigned resume identity. Valid only
	// after Events is exhausted.
	nativeID func() string
}

// NewStream builds a Stream. nativeID may be nil for backends whose session
// id is the resume identity.
func NewStream(events <-chan agentstream.Event, nativeID func() string) *Stream {
	return &Stream{Events: events, nativeID: nativeID}
}

// NativeID returns the backend-assigned resume identity learned during the
// turn. Call only after Events has been exhausted.
func (s *Stream) NativeID() string {
	if s.nativeID == nil {
		return ""
	}
	return s.nativeID()
}

// Backend is the pluggable interface for agent CLI backends. Implementations
// translate the uniform turn contract into backend-specific invocation syntax
// and event vocabulary.
type Backend interface {
	// Name returns the backend name (e.g. "claude", "codex").
	Name() string

	// Ask executes one buffered turn.
	Ask(ctx context.Context, req TurnRequest) (*TurnResult, error)

	// AskStream executes one streaming turn.
	AskStream(ctx context.Context, req TurnRequest) (*Stream, error)
}
