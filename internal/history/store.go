// Package history persists each user's chat transcript.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
)

// Store reads and writes one transcript record per user.
type Store struct {
	repo store.Repository
}

// NewStore creates a history store backed by repo.
func NewStore(repo store.Repository) *Store {
	return &Store{repo: repo}
}

// Load returns the stored transcript, or an empty one if the record is
// missing or cannot be parsed.
func (s *Store) Load(ctx context.Context, username string) ([]domain.MessageEntry, error) {
	data, err := s.repo.Get(ctx, store.KindChatHistory, username)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	if data == nil {
		return []domain.MessageEntry{}, nil
	}

	var entries []domain.MessageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Chat history record is corrupt, starting empty", "username", username, "error", err)
		return []domain.MessageEntry{}, nil
	}
	if entries == nil {
		entries = []domain.MessageEntry{}
	}
	return entries, nil
}

// Save overwrites the stored transcript with entries.
func (s *Store) Save(ctx context.Context, username string, entries []domain.MessageEntry) error {
	if entries == nil {
		entries = []domain.MessageEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := s.repo.Put(ctx, store.KindChatHistory, username, data); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}
