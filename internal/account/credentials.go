// Package account persists the username to secret mapping and checks logins.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
)

var (
	// ErrAlreadyExists is returned by Register when the username is taken.
	ErrAlreadyExists = errors.New("username already exists")
	// ErrInvalidUsername is returned by Register for usernames that cannot key a record.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrEmptyPassword is returned by Register when no password is given.
	ErrEmptyPassword = errors.New("password is required")
)

// CredentialStore keeps every account in one durable record that is loaded
// and saved wholesale.
type CredentialStore struct {
	repo store.Repository
}

// NewCredentialStore creates a credential store backed by repo.
func NewCredentialStore(repo store.Repository) *CredentialStore {
	return &CredentialStore{repo: repo}
}

// Load returns all accounts. A missing, empty or unparsable record yields an
// empty mapping.
func (s *CredentialStore) Load(ctx context.Context) (map[string]string, error) {
	data, err := s.repo.Get(ctx, store.KindCredentials, store.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	users := make(map[string]string)
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(data, &users); err != nil {
		slog.Warn("Credentials record is corrupt, treating as empty", "error", err)
		return make(map[string]string), nil
	}
	if users == nil { // "null"
		users = make(map[string]string)
	}
	return users, nil
}

// Save overwrites the credentials record with users.
func (s *CredentialStore) Save(ctx context.Context, users map[string]string) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := s.repo.Put(ctx, store.KindCredentials, store.CredentialsKey, data); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Authenticate reports whether username exists and password matches its
// stored secret.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	users, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	secret, ok := users[username]
	if !ok {
		return false, nil
	}
	return secretsMatch(secret, password), nil
}

// Register adds a new account and persists the full mapping.
func (s *CredentialStore) Register(ctx context.Context, username, password string) error {
	if !store.ValidKey(username) {
		return ErrInvalidUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}

	users, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return ErrAlreadyExists
	}

	users[username] = password
	return s.Save(ctx, users)
}

// secretsMatch is the single place where a login secret is compared. Secrets
// are stored as given, so this is an exact, case-sensitive comparison.
func secretsMatch(stored, given string) bool {
	return stored == given
}
