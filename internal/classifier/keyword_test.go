package classifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesLoad(t *testing.T) {
	k, err := LoadKeyword("")
	require.NoError(t, err)
	assert.NotEmpty(t, k.rules.Intents)
}

func TestKeywordPredict(t *testing.T) {
	k, err := NewKeyword(Rules{
		Default: "tell me more",
		Intents: []Intent{
			{Name: "crisis", Keywords: []string{"End My Life"}, Response: "get help now"},
			{Name: "anxiety", Keywords: []string{"anxious", "panic"}, Response: "breathe"},
			{Name: "sleep", Keywords: []string{"can't sleep"}, Response: "rest"},
		},
	})
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		in, want string
	}{
		{"I feel anxious", "breathe"},
		{"PANIC!!!", "breathe"},
		{"I can't sleep at night", "rest"},
		{"i want to end my life", "get help now"},
		{"I'm anxious and want to end my life", "get help now"},
		{"panicking is a different word", "tell me more"},
		{"", "tell me more"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, k.Predict(ctx, tc.in), "input %q", tc.in)
	}
}

func TestKeywordIsDeterministic(t *testing.T) {
	k, err := LoadKeyword("")
	require.NoError(t, err)
	ctx := context.Background()
	first := k.Predict(ctx, "I feel anxious")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, k.Predict(ctx, "I feel anxious"))
	}
}

func TestLoadKeywordFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: fallback
intents:
  - name: hello
    keywords: [hola]
    response: hi there
`), 0o644))

	k, err := LoadKeyword(path)
	require.NoError(t, err)
	assert.Equal(t, "hi there", k.Predict(context.Background(), "Hola amigo"))
	assert.Equal(t, "fallback", k.Predict(context.Background(), "bye"))
}

func TestLoadKeywordErrors(t *testing.T) {
	_, err := LoadKeyword(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intents: [\n"), 0o644))
	_, err = LoadKeyword(path)
	assert.Error(t, err)

	_, err = NewKeyword(Rules{})
	assert.Error(t, err, "default reply is required")

	_, err = NewKeyword(Rules{Default: "x", Intents: []Intent{{Name: "empty"}}})
	assert.Error(t, err)
}
