// Package auth holds the in-memory credential state for outbound chat API
// calls and drives the browser-based authorization flow against the chat
// backend. Tokens live only in memory; a restart requires re-authorizing.
package auth

import (
	"sync"
	"time"
)

// State is the mutex-guarded token store. The zero value is unauthenticated;
// seed a static token with SetStaticToken.
type State struct {
	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	expiresAt     string
	userID        string
	authSessionID string
}

// SetStaticToken installs a long-lived token from configuration.
func (s *State) SetStaticToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// SetToken stores the credentials returned by a completed auth flow.
func (s *State) SetToken(accessToken, refreshToken string, expiresIn int, userID, authSessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = ""
	if expiresIn > 0 {
		s.expiresAt = time.Now().UTC().Add(time.Duration(expiresIn) * time.Second).Format(time.RFC3339)
	}
	s.userID = userID
	s.authSessionID = authSessionID
}

// SetUserID records the validated user id.
func (s *State) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// Clear wipes all credential state.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = ""
	s.userID = ""
	s.authSessionID = ""
}

// Token returns the active access token, or "" when unauthenticated.
// Implements the chat API client's token source.
func (s *State) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// View is a safe state snapshot; it never exposes the token value.
type View struct {
	UserID        string `json:"user_id,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	AuthSessionID string `json:"auth_session_id,omitempty"`
	TokenSource   string `json:"token_source"`
	Authenticated bool   `json:"authenticated"`
}

// Snapshot returns the current state without the token value.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := "none"
	if s.accessToken != "" {
		source = "dynamic_or_env"
	}
	return View{
		Authenticated: s.accessToken != "",
		UserID:        s.userID,
		ExpiresAt:     s.expiresAt,
		AuthSessionID: s.authSessionID,
		TokenSource:   source,
	}
}
