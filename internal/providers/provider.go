package providers

import (
	"context"
	"strings"
	"time"
)

// Backend sends one instruction/content pair to an AI model and returns its
// plain-text answer.
type Backend interface {
	Respond(ctx context.Context, instruction, content string) (string, error)
	Name() string
}

// Provider tags. Aliases are resolved by Canonical.
const (
	OpenAITag    = "openai"
	AnthropicTag = "anthropic"
	LocalTag     = "local"
)

// Settings configures a backend. Zero values select provider defaults.
type Settings struct {
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

func (s Settings) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return 4096
}

func (s Settings) timeout(def time.Duration) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return def
}

// Tags lists the canonical provider tags.
func Tags() []string {
	return []string{OpenAITag, AnthropicTag, LocalTag}
}

// Canonical resolves a provider tag or alias to its canonical tag.
func Canonical(tag string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case OpenAITag:
		return OpenAITag, nil
	case AnthropicTag, "claude":
		return AnthropicTag, nil
	case LocalTag, "ollama", "lmstudio":
		return LocalTag, nil
	default:
		return "", &UnsupportedProviderError{Tag: tag}
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(tag string) string {
	switch tag {
	case OpenAITag:
		return "gpt-4o-mini"
	case AnthropicTag:
		return "claude-sonnet-4-20250514"
	default:
		return "llama3.1"
	}
}

// New creates the backend for tag. Unknown tags yield
// *UnsupportedProviderError; hosted providers without a key yield an error
// wrapping ErrMissingAPIKey.
func New(tag string, s Settings) (Backend, error) {
	canon, err := Canonical(tag)
	if err != nil {
		return nil, err
	}
	if s.Model == "" {
		s.Model = DefaultModel(canon)
	}
	switch canon {
	case OpenAITag:
		return NewOpenAI(s)
	case AnthropicTag:
		return NewAnthropic(s)
	default:
		return NewLocal(strings.ToLower(strings.TrimSpace(tag)), s)
	}
}
