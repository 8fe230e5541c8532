package providers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func asBackendError(err error, target **BackendError) bool {
	return errors.As(err, target)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("gemini", Settings{})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	var upe *UnsupportedProviderError
	if !errors.As(err, &upe) {
		t.Fatalf("expected *UnsupportedProviderError, got %T", err)
	}
	if upe.Tag != "gemini" {
		t.Errorf("Tag = %q, want %q", upe.Tag, "gemini")
	}
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	envs := map[string]string{"openai": "OPENAI_API_KEY", "anthropic": "ANTHROPIC_API_KEY"}
	for tag, env := range envs {
		_, err := New(tag, Settings{})
		if err == nil {
			t.Fatalf("New(%q) should fail without a key", tag)
		}
		if !IsAuthError(err) {
			t.Errorf("New(%q) error should be an auth error: %v", tag, err)
		}
		hint := errors.FlattenHints(err)
		if !strings.Contains(hint, env) {
			t.Errorf("New(%q) hint %q should name %s", tag, hint, env)
		}
		if strings.Contains(hint, "config") {
			t.Errorf("New(%q) hint %q points at a config key that does not exist", tag, hint)
		}
	}
}

func TestNew_KeyFromSettings(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	b, err := New("anthropic", Settings{APIKey: "k"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	a := b.(*Anthropic)
	if a.model != DefaultModel(AnthropicTag) {
		t.Errorf("model = %q, want default %q", a.model, DefaultModel(AnthropicTag))
	}
}

func TestFactory_LocalAliases(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	for _, name := range []string{"local", "ollama", "lmstudio", "Ollama"} {
		b, err := New(name, Settings{Model: "llama3"})
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if b.Name() != LocalTag {
			t.Errorf("New(%q).Name() = %q, want %q", name, b.Name(), LocalTag)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"openai", OpenAITag, true},
		{" Anthropic ", AnthropicTag, true},
		{"claude", AnthropicTag, true},
		{"lmstudio", LocalTag, true},
		{"google", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := Canonical(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("Canonical(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	if (&Anthropic{}).Name() != "anthropic" {
		t.Error("Anthropic name")
	}
	if (&OpenAI{}).Name() != "openai" {
		t.Error("OpenAI name")
	}
}

func TestIsAuthError(t *testing.T) {
	if IsAuthError(nil) {
		t.Error("nil should not be auth error")
	}
	if IsAuthError(&BackendError{Provider: "x", Status: http.StatusTooManyRequests}) {
		t.Error("429 should not be auth error")
	}
	if !IsAuthError(&BackendError{Provider: "x", Status: http.StatusUnauthorized}) {
		t.Error("401 should be auth error")
	}
	if !IsAuthError(errors.Wrap(&BackendError{Provider: "x", Status: http.StatusForbidden}, "wrapped")) {
		t.Error("wrapped 403 should be auth error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&BackendError{Status: 401}, false},
		{&BackendError{Status: 400}, false},
		{&BackendError{Status: 429}, true},
		{&BackendError{Status: 500}, true},
		{&BackendError{Status: 502}, true},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&BackendError{Provider: "openai", Status: 500, Message: "oops"}, "openai: status 500: oops"},
		{&BackendError{Provider: "local", Message: "no choices in response"}, "local: no choices in response"},
		{&BackendError{Provider: "local", Message: "sending request", Err: errors.New("refused")}, "local: sending request: refused"},
		{&UnsupportedProviderError{Tag: "gemini"}, `unsupported provider "gemini"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := retryWithBackoff(ctx, 3, func() error {
		return &BackendError{Status: 429}
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		return &BackendError{Status: 401, Message: "bad"}
	})
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for auth error, got %d", attempts)
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	err := retryWithBackoff(context.Background(), 3, func() error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil error, got: %v", err)
	}
}
