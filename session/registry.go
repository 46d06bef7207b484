// Package session maps caller-visible conversation keys to the session
// identity this adapter assigns and to whatever native resume identity the
// backend process reports.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Logical is one conversation's identity mapping. SessionID is generated at
// first-turn time and stable for the conversation's lifetime. NativeResumeID
// is backend-assigned (e.g. a codex thread id) and empty until the backend
// supplies one; resume falls back to SessionID when it is empty.
type Logical struct {
	ConversationKey string
	SessionID       string
	NativeResumeID  string
}

// ResumeID returns the identity to address on resume.
func (l Logical) ResumeID() string {
	if l.NativeResumeID != "" {
		return l.NativeResumeID
	}
	return l.SessionID
}

// NewSessionID generates a fresh session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Registry is the in-memory session store, shared by concurrently executing
// turns. Entries are written only after a turn completes without failure, so
// a session that never started successfully is never registered.
type Registry struct {
	sessions map[string]Logical
	locks    map[string]*sync.Mutex
	mu       sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Logical),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Resolve looks up the session for a conversation key.
func (r *Registry) Resolve(key string) (Logical, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.sessions[key]
	return l, ok
}

// Commit records a conversation's session identity after a successful turn.
// An empty nativeID preserves any native identity learned earlier.
func (r *Registry) Commit(key, sessionID, nativeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := Logical{ConversationKey: key, SessionID: sessionID, NativeResumeID: nativeID}
	if prev, ok := r.sessions[key]; ok && nativeID == "" && prev.SessionID == sessionID {
		l.NativeResumeID = prev.NativeResumeID
	}
	r.sessions[key] = l
}

// Remove deletes a conversation's session. Removing an absent key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// Len reports the number of registered conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot returns a copy of the conversation key to session id mapping.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.sessions))
	for key, l := range r.sessions {
		out[key] = l.SessionID
	}
	return out
}

// LockKey serializes turns for one conversation key. Two turns racing to
// create a session for the same key would otherwise spawn two processes and
// silently overwrite each other's entry; the second caller instead waits and
// resumes the committed session. Turns on different keys are independent.
// The returned func releases the lock.
func (r *Registry) LockKey(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
