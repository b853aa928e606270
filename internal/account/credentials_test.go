package account

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
)

func newTestStore(t *testing.T) (*CredentialStore, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := store.NewFileStore(root)
	require.NoError(t, err)
	return NewCredentialStore(repo), root
}

func TestRegisterThenDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw1"))
	err := s.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	ok, err := s.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok, "duplicate register must not replace the secret")
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, "alice", "Secret"))

	cases := []struct {
		name, user, pass string
		want             bool
	}{
		{"exact match", "alice", "Secret", true},
		{"case differs", "alice", "secret", false},
		{"unknown user", "bob", "Secret", false},
		{"empty password", "alice", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := s.Authenticate(ctx, tc.user, tc.pass)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestLoadToleratesBadRecords(t *testing.T) {
	for name, content := range map[string]string{
		"empty":      "",
		"whitespace": "  \n\t",
		"garbage":    "{not json",
		"wrong type": `["alice"]`,
		"null":       "null",
	} {
		t.Run(name, func(t *testing.T) {
			s, root := newTestStore(t)
			require.NoError(t, os.WriteFile(filepath.Join(root, "users.json"), []byte(content), 0o644))

			users, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestRegisterOverCorruptRecord(t *testing.T) {
	s, root := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "users.json"), []byte("%%%"), 0o644))

	require.NoError(t, s.Register(context.Background(), "alice", "pw"))
	users, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "pw"}, users)
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Register(ctx, "", "pw"), ErrInvalidUsername)
	assert.ErrorIs(t, s.Register(ctx, "../evil", "pw"), ErrInvalidUsername)
	assert.ErrorIs(t, s.Register(ctx, "alice", ""), ErrEmptyPassword)

	users, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
