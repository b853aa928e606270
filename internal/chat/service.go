package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/classifier"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
)

// EmptyMessageReply is returned for blank utterances.
const EmptyMessageReply = "Please enter a message."

var (
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionExpired is returned when an operation needs an Active session.
	ErrSessionExpired = errors.New("session expired")
)

// CredentialStore checks and registers accounts.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
	Register(ctx context.Context, username, password string) error
}

// ProfileStore maintains per-user statistics.
type ProfileStore interface {
	Load(ctx context.Context, username string) (domain.Profile, error)
	Create(ctx context.Context, username string) (domain.Profile, error)
	TouchLastActive(ctx context.Context, username string) error
	RecordTurn(ctx context.Context, username string) error
}

// HistoryStore persists chat transcripts.
type HistoryStore interface {
	Load(ctx context.Context, username string) ([]domain.MessageEntry, error)
	Save(ctx context.Context, username string, entries []domain.MessageEntry) error
}

// Config tunes a Service.
type Config struct {
	// SerializeUserWrites runs each user's load-mutate-save sequences one at a
	// time. When false, concurrent requests for the same user race and the last
	// writer wins.
	SerializeUserWrites bool
	// Now overrides the clock used for message timestamps.
	Now func() time.Time
}

// Service is the session boundary used by the hosting web layer.
type Service struct {
	credentials CredentialStore
	profiles    ProfileStore
	history     HistoryStore
	predictor   classifier.Predictor
	locks       *userLocks
	now         func() time.Time
}

// NewService wires the stores and the classifier together.
func NewService(credentials CredentialStore, profiles ProfileStore, history HistoryStore, predictor classifier.Predictor, cfg Config) *Service {
	s := &Service{
		credentials: credentials,
		profiles:    profiles,
		history:     history,
		predictor:   predictor,
		now:         cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.SerializeUserWrites {
		s.locks = newUserLocks()
	}
	return s
}

func (s *Service) lockUser(username string) func() {
	if s.locks == nil {
		return func() {}
	}
	return s.locks.lock(username)
}

// Signup registers a new account and initializes its profile and an empty
// chat history.
func (s *Service) Signup(ctx context.Context, username, password string) error {
	if err := s.credentials.Register(ctx, username, password); err != nil {
		return err
	}

	unlock := s.lockUser(username)
	defer unlock()

	if _, err := s.profiles.Create(ctx, username); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if err := s.history.Save(ctx, username, []domain.MessageEntry{}); err != nil {
		return fmt.Errorf("initialize chat history: %w", err)
	}
	slog.Info("Account created", "username", username)
	return nil
}

// Login authenticates the user and returns an Active session rehydrated from
// the stored chat history.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	ok, err := s.credentials.Authenticate(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	unlock := s.lockUser(username)
	defer unlock()

	entries, err := s.history.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.TouchLastActive(ctx, username); err != nil {
		return nil, err
	}

	slog.Info("User logged in", "username", username, "history_len", len(entries))
	return newSession(username, entries), nil
}

// Logout flushes the session buffer, stamps the profile and ends the session.
// Logging out a nil or already ended session is a no-op.
func (s *Service) Logout(ctx context.Context, sess *Session) error {
	return s.finalize(ctx, sess, "logout")
}

// Expire finalizes a session whose hosting token timed out. It has the same
// effect as Logout.
func (s *Service) Expire(ctx context.Context, sess *Session) error {
	return s.finalize(ctx, sess, "expired")
}

// finalize leaves the session Active when a write fails so that the flush
// can be retried.
func (s *Service) finalize(ctx context.Context, sess *Session, reason string) error {
	if sess == nil {
		return nil
	}

	unlock := s.lockUser(sess.username)
	defer unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.active {
		return nil
	}

	if err := s.history.Save(ctx, sess.username, sess.buffer); err != nil {
		return err
	}
	if err := s.profiles.TouchLastActive(ctx, sess.username); err != nil {
		return err
	}

	sess.active = false
	sess.buffer = nil
	slog.Info("Session ended", "username", sess.username, "reason", reason)
	return nil
}

// HandleTurn processes one user utterance and returns the classifier's reply.
//
// A blank utterance returns EmptyMessageReply without touching any state.
// Otherwise the user and bot entries are appended as a pair, the buffer is
// capped to BufferLimit, the capped buffer overwrites the stored history and
// the profile counts the turn.
func (s *Service) HandleTurn(ctx context.Context, sess *Session, utterance string) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return EmptyMessageReply, nil
	}
	if !sess.Active() {
		return "", ErrSessionExpired
	}

	reply := s.predictor.Predict(ctx, utterance)

	unlock := s.lockUser(sess.username)
	defer unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.active {
		return "", ErrSessionExpired
	}

	pair := domain.Exchange(utterance, reply, s.now())
	next := make([]domain.MessageEntry, 0, len(sess.buffer)+len(pair))
	next = append(next, sess.buffer...)
	next = append(next, pair[:]...)
	next = capBuffer(next)

	if err := s.history.Save(ctx, sess.username, next); err != nil {
		return "", err
	}
	sess.buffer = next

	if err := s.profiles.RecordTurn(ctx, sess.username); err != nil {
		return "", err
	}
	return reply, nil
}

// ClearHistory empties the session buffer and the stored history. Profile
// counters are kept.
func (s *Service) ClearHistory(ctx context.Context, sess *Session) error {
	if !sess.Active() {
		return ErrSessionExpired
	}

	unlock := s.lockUser(sess.username)
	defer unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.active {
		return ErrSessionExpired
	}

	if err := s.history.Save(ctx, sess.username, []domain.MessageEntry{}); err != nil {
		return err
	}
	sess.buffer = []domain.MessageEntry{}
	slog.Info("Chat history cleared", "username", sess.username)
	return nil
}

// GetProfile returns the stored profile for username.
func (s *Service) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	unlock := s.lockUser(username)
	defer unlock()
	return s.profiles.Load(ctx, username)
}

// GetHistory returns the stored chat history for username.
func (s *Service) GetHistory(ctx context.Context, username string) ([]domain.MessageEntry, error) {
	return s.history.Load(ctx, username)
}
