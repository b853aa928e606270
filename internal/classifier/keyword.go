package classifier

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rules is the on-disk form of the keyword classifier.
type Rules struct {
	Default string   `yaml:"default"`
	Intents []Intent `yaml:"intents"`
}

// Intent maps a set of keywords to a canned reply. Single-word keywords match
// whole words; multi-word keywords match as phrases.
type Intent struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

// Keyword is a deterministic, local classifier that picks the first intent
// whose keywords appear in the utterance. Intents are tried in file order, so
// later entries win ties only when earlier ones do not match.
type Keyword struct {
	rules Rules
}

// NewKeyword builds a classifier from rules.
func NewKeyword(rules Rules) (*Keyword, error) {
	if strings.TrimSpace(rules.Default) == "" {
		return nil, errors.New("classifier rules: default reply is required")
	}
	for i, in := range rules.Intents {
		if in.Response == "" {
			return nil, fmt.Errorf("classifier rules: intent %d (%s) has no response", i, in.Name)
		}
		for j, kw := range in.Keywords {
			rules.Intents[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &Keyword{rules: rules}, nil
}

// LoadKeyword reads YAML rules from path. An empty path loads the built-in rules.
func LoadKeyword(path string) (*Keyword, error) {
	data := defaultRules
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read classifier rules: %w", err)
		}
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse classifier rules: %w", err)
	}
	return NewKeyword(rules)
}

// Predict returns the reply of the first matching intent, or the default reply.
func (k *Keyword) Predict(_ context.Context, text string) string {
	words := tokenize(text)
	phrase := " " + strings.Join(words, " ") + " "

	for _, in := range k.rules.Intents {
		for _, kw := range in.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(phrase, " "+strings.Join(tokenize(kw), " ")+" ") {
				return in.Response
			}
		}
	}
	return k.rules.Default
}

// tokenize lowercases text and splits it on anything that is not a letter,
// digit or apostrophe.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
