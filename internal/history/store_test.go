package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := store.NewFileStore(root)
	require.NoError(t, err)
	return NewStore(repo), root
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	entries, err := s.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	s, root := newTestStore(t)
	path := filepath.Join(root, "chat_history", "alice_chat_history.json")
	for _, content := range []string{"[{", `{"type":"user"}`, "null"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		entries, err := s.Load(context.Background(), "alice")
		require.NoError(t, err)
		assert.Empty(t, entries, "content %q", content)
	}
}

func TestSaveOverwritesVerbatim(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	first := []domain.MessageEntry{
		{Type: domain.MessageTypeUser, Message: "hi", Timestamp: "10:00"},
		{Type: domain.MessageTypeBot, Message: "hello", Timestamp: "10:00"},
	}
	require.NoError(t, s.Save(ctx, "alice", first))

	second := []domain.MessageEntry{
		{Type: domain.MessageTypeUser, Message: "again", Timestamp: "10:05"},
		{Type: domain.MessageTypeBot, Message: "sure", Timestamp: "10:05"},
	}
	require.NoError(t, s.Save(ctx, "alice", second))

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	raw, err := os.ReadFile(filepath.Join(root, "chat_history", "alice_chat_history.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type": "user"`)
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	s, root := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), "alice", nil))

	raw, err := os.ReadFile(filepath.Join(root, "chat_history", "alice_chat_history.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
