package identity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
)

// Entry is a registered login session.
type Entry struct {
	Token    string
	Session  *chat.Session
	LastSeen time.Time
}

// Registry maps opaque session tokens to chat sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Entry),
		now:      time.Now,
	}
}

// Register stores sess under a fresh token and returns the token.
func (r *Registry) Register(sess *chat.Session) string {
	token := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = &Entry{Token: token, Session: sess, LastSeen: r.now()}
	return token
}

// Lookup returns the session for token and marks it as seen. It returns nil
// for unknown tokens and for sessions that are no longer active.
//
// The session's own lock is never taken while r.mu is held: a session can be
// busy with a slow turn and must not stall lookups for other users.
func (r *Registry) Lookup(token string) *chat.Session {
	if token == "" {
		return nil
	}

	r.mu.RLock()
	e, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if !e.Session.Active() {
		r.mu.Lock()
		if cur, ok := r.sessions[token]; ok && cur == e {
			delete(r.sessions, token)
		}
		r.mu.Unlock()
		return nil
	}

	r.Touch(token)
	return e.Session
}

// Touch marks token as seen now. Long-lived connections call it on activity
// so the expiry worker does not end a session that is still in use.
func (r *Registry) Touch(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[token]; ok {
		e.LastSeen = r.now()
	}
}

// Remove forgets token and returns the session it mapped to, if any.
func (r *Registry) Remove(token string) *chat.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[token]
	if !ok {
		return nil
	}
	delete(r.sessions, token)
	return e.Session
}

// Idle returns the entries not seen for longer than ttl.
func (r *Registry) Idle(ttl time.Duration) []Entry {
	cutoff := r.now().Add(-ttl)

	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []Entry
	for _, e := range r.sessions {
		if e.LastSeen.Before(cutoff) {
			idle = append(idle, *e)
		}
	}
	return idle
}

// RemoveIfIdle removes token only if it is still idle past ttl, so a request
// that arrived during expiry keeps its session.
func (r *Registry) RemoveIfIdle(token string, ttl time.Duration) bool {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[token]
	if !ok || !e.LastSeen.Before(cutoff) {
		return false
	}
	delete(r.sessions, token)
	return true
}

// restore puts back an entry whose expiry failed so the next sweep retries it.
func (r *Registry) restore(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[e.Token]; !ok {
		r.sessions[e.Token] = &e
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
