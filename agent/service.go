package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
	"github.com/sharmasuraj0123/xo-cowork-api/session"
)

// HistorySink receives completed exchanges for external chat storage.
// Sink failures must not fail the turn that produced the exchange.
type HistorySink interface {
	SaveExchange(ctx context.Context, conversationKey, actorID, question, answer, messageType string) error
}

// AskParams identify one turn request from a caller.
type AskParams struct {
	// ConversationKey is the caller-chosen stable conversation identifier.
	ConversationKey string

	// ActorID attributes the exchange in chat history.
	ActorID string

	// Question is the raw question text.
	Question string

	// AgentType optionally selects a profile.
	AgentType string

	// MessageType tags the inbound message in chat history.
	MessageType string
}

// Answer is the buffered outcome of a turn.
type Answer struct {
	Text      string
	SessionID string
	IsNew     bool
}

// TurnStream is a streaming turn handed to the caller. Events preserves
// stdout order and terminates with exactly one done event.
type TurnStream struct {
	Events    <-chan agentstream.Event
	SessionID string
	IsNew     bool
}

// Service runs turns against one backend. It owns the new-vs-resume
// decision, serializes turns per conversation key, and updates the session
// registry and chat history only after a turn succeeds.
type Service struct {
	backend  Backend
	registry *session.Registry
	history  HistorySink
	logger   *slog.Logger
}

// NewService creates a turn service. history may be nil to disable chat
// storage.
func NewService(backend Backend, registry *session.Registry, history HistorySink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, registry: registry, history: history, logger: logger}
}

// Backend returns the configured backend.
func (s *Service) Backend() Backend { return s.backend }

// Registry returns the session registry.
func (s *Service) Registry() *session.Registry { return s.registry }

// buildRequest resolves a conversation key against the registry. The first
// turn for an unseen key gets "new" semantics with a freshly generated
// session id; the id is not registered until the turn succeeds.
func (s *Service) buildRequest(p AskParams) TurnRequest {
	req := TurnRequest{Question: p.Question, AgentType: p.AgentType}
	if l, ok := s.registry.Resolve(p.ConversationKey); ok {
		req.SessionID = l.SessionID
		req.ResumeID = l.ResumeID()
		s.logger.Info("resuming session", "conversation", p.ConversationKey, "session_id", l.SessionID)
		return req
	}
	req.IsNew = true
	req.SessionID = session.NewSessionID()
	s.logger.Info("new session", "conversation", p.ConversationKey, "session_id", req.SessionID)
	return req
}

// Ask executes one buffered turn.
func (s *Service) Ask(ctx context.Context, p AskParams) (*Answer, error) {
	unlock := s.registry.LockKey(p.ConversationKey)
	defer unlock()

	req := s.buildRequest(p)
	result, err := s.backend.Ask(ctx, req)
	if err != nil {
		return nil, err
	}

	s.registry.Commit(p.ConversationKey, req.SessionID, result.NativeID)
	s.saveExchange(ctx, p, result.Text)

	return &Answer{Text: result.Text, SessionID: req.SessionID, IsNew: req.IsNew}, nil
}

// AskStream executes one streaming turn. The conversation key stays locked
// until the stream is exhausted; the session is committed and the exchange
// saved only if the stream produced text.
func (s *Service) AskStream(ctx context.Context, p AskParams) (*TurnStream, error) {
	unlock := s.registry.LockKey(p.ConversationKey)

	req := s.buildRequest(p)
	stream, err := s.backend.AskStream(ctx, req)
	if err != nil {
		unlock()
		return nil, err
	}

	out := make(chan agentstream.Event, 64)
	go func() {
		defer close(out)
		defer unlock()

		var answer strings.Builder
		for ev := range stream.Events {
			if token, ok := ev.(agentstream.TokenEvent); ok {
				answer.WriteString(token.Token)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				// Consumer gone; keep draining so the process is reaped.
			}
		}

		// Tokens already delivered are not revoked on a mid-stream
		// failure, so any produced text is committed and saved.
		if answer.Len() > 0 {
			s.registry.Commit(p.ConversationKey, req.SessionID, stream.NativeID())
			s.saveExchange(context.WithoutCancel(ctx), p, answer.String())
		}
	}()

	return &TurnStream{Events: out, SessionID: req.SessionID, IsNew: req.IsNew}, nil
}

// saveExchange pushes the question and answer to chat storage. Failures are
// logged, never fatal to the turn.
func (s *Service) saveExchange(ctx context.Context, p AskParams, answer string) {
	if s.history == nil || answer == "" {
		return
	}
	if err := s.history.SaveExchange(ctx, p.ConversationKey, p.ActorID, p.Question, answer, p.MessageType); err != nil {
		s.logger.Warn("chat history save failed", "conversation", p.ConversationKey, "error", err)
	}
}
