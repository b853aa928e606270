// Package chat implements the login session lifecycle and the chat turn
// processor that keeps session buffers in step with durable records.
package chat

import (
	"sync"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
)

// BufferLimit is the number of most recent entries a session keeps.
const BufferLimit = 50

// Session is the transient state of one authenticated login. A Session is
// Active from a successful Login until Logout or Expire, after which its
// buffer is discarded and every operation on it fails with ErrSessionExpired.
type Session struct {
	username string

	mu     sync.Mutex
	active bool
	buffer []domain.MessageEntry
}

func newSession(username string, history []domain.MessageEntry) *Session {
	return &Session{
		username: username,
		active:   true,
		buffer:   capBuffer(append([]domain.MessageEntry(nil), history...)),
	}
}

// Username returns the owner of the session.
func (s *Session) Username() string {
	return s.username
}

// Active reports whether the session can still be used.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages returns a copy of the session buffer.
func (s *Session) Messages() []domain.MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MessageEntry{}, s.buffer...)
}

// capBuffer drops the oldest entries so at most BufferLimit remain.
func capBuffer(buf []domain.MessageEntry) []domain.MessageEntry {
	if len(buf) <= BufferLimit {
		return buf
	}
	return append([]domain.MessageEntry(nil), domain.LastN(buf, BufferLimit)...)
}
