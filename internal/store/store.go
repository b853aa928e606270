// Package store provides durable record persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Kind names a family of durable records.
type Kind string

const (
	// KindCredentials is the single record holding every username and secret.
	KindCredentials Kind = "credentials"
	// KindProfile holds one profile record per user.
	KindProfile Kind = "profile"
	// KindChatHistory holds one chat transcript per user.
	KindChatHistory Kind = "chat_history"
)

// CredentialsKey is the key of the single credentials record.
const CredentialsKey = "users"

// ErrInvalidKey is returned when a record key cannot be stored safely.
var ErrInvalidKey = errors.New("invalid record key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)

// Repository stores opaque textual records addressed by kind and key.
// Callers own the encoding; the repository never inspects record content.
type Repository interface {
	// Get returns the raw record. Returns nil, nil if the record does not exist.
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)

	// Put overwrites the record with data.
	Put(ctx context.Context, kind Kind, key string, data []byte) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ValidKey reports whether key can address a record.
func ValidKey(key string) bool {
	return key != "." && key != ".." && keyPattern.MatchString(key)
}

func checkKey(kind Kind, key string) error {
	switch kind {
	case KindCredentials, KindProfile, KindChatHistory:
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the repository for the named backend.
func Open(backend, dataDir, dbPath string) (Repository, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
