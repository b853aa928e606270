// Package profile persists per-user profile statistics.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
)

// Store reads and writes one profile record per user.
type Store struct {
	repo store.Repository
	now  func() time.Time
}

// NewStore creates a profile store. A nil now uses time.Now.
func NewStore(repo store.Repository, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, now: now}
}

// storedProfile distinguishes absent fields from zero values.
type storedProfile struct {
	Username      *string `json:"username"`
	CreatedDate   *string `json:"created_date"`
	TotalSessions *int    `json:"total_sessions"`
	TotalMessages *int    `json:"total_messages"`
	LastActive    *string `json:"last_active"`
}

// Load returns the profile for username.
//
// A missing record is created, persisted and returned. A record that cannot be
// parsed yields a recovered profile with CreatedDate "Unknown"; the stored
// bytes are left untouched.
func (s *Store) Load(ctx context.Context, username string) (domain.Profile, error) {
	data, err := s.repo.Get(ctx, store.KindProfile, username)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	if data == nil {
		p := domain.NewProfile(username, s.now())
		if err := s.Save(ctx, username, p); err != nil {
			return domain.Profile{}, err
		}
		return p, nil
	}

	p, ok := decode(username, data)
	if !ok {
		slog.Warn("Profile record is corrupt, using recovered defaults", "username", username)
		return domain.RecoveredProfile(username, s.now()), nil
	}
	return p, nil
}

func decode(username string, data []byte) (domain.Profile, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return domain.Profile{}, false
	}
	var raw storedProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Profile{}, false
	}

	p := domain.Profile{
		Username:    username,
		CreatedDate: domain.UnknownTimestamp,
		LastActive:  domain.UnknownTimestamp,
	}
	if raw.Username != nil {
		p.Username = *raw.Username
	}
	if raw.CreatedDate != nil {
		p.CreatedDate = *raw.CreatedDate
	}
	if raw.TotalSessions != nil {
		p.TotalSessions = *raw.TotalSessions
	}
	if raw.TotalMessages != nil {
		p.TotalMessages = *raw.TotalMessages
	}
	if raw.LastActive != nil {
		p.LastActive = *raw.LastActive
	}
	return p, true
}

// Save overwrites the profile record for username.
func (s *Store) Save(ctx context.Context, username string, p domain.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.repo.Put(ctx, store.KindProfile, username, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Create writes a fresh profile for a newly registered user, replacing any
// record left over under the same name.
func (s *Store) Create(ctx context.Context, username string) (domain.Profile, error) {
	p := domain.NewProfile(username, s.now())
	if err := s.Save(ctx, username, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// TouchLastActive stamps the profile's last activity with the current time.
func (s *Store) TouchLastActive(ctx context.Context, username string) error {
	p, err := s.Load(ctx, username)
	if err != nil {
		return err
	}
	p.Touch(s.now())
	return s.Save(ctx, username, p)
}

// RecordTurn counts one user message and one bot reply.
func (s *Store) RecordTurn(ctx context.Context, username string) error {
	p, err := s.Load(ctx, username)
	if err != nil {
		return err
	}
	p.TotalMessages += 2
	p.Touch(s.now())
	return s.Save(ctx, username, p)
}
