package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultLMStudioURL = "http://localhost:1234"
)

// Local implements Backend for OpenAI-compatible local servers such as
// Ollama and LM Studio.
type Local struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// NewLocal creates a local backend. flavor is the tag the user asked for
// ("local", "ollama" or "lmstudio") and only picks the default address.
// No API key is required; CHANGELENS_LOCAL_API_KEY is sent when set.
func NewLocal(flavor string, s Settings) (*Local, error) {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		if flavor == "lmstudio" {
			baseURL = defaultLMStudioURL
		} else {
			baseURL = defaultOllamaURL
		}
	}

	apiKey := s.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("CHANGELENS_LOCAL_API_KEY")
	}

	return &Local{
		apiKey:    apiKey,
		model:     s.Model,
		baseURL:   normalizeLocalURL(baseURL),
		maxTokens: s.maxTokens(),
		client:    &http.Client{Timeout: s.timeout(300 * time.Second)},
	}, nil
}

// normalizeLocalURL accepts a bare host, a /v1 prefix, or the full
// completions path and returns the completions endpoint.
func normalizeLocalURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/v1/chat/completions")
	u = strings.TrimSuffix(u, "/v1")
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u + "/v1/chat/completions"
}

func (l *Local) Name() string { return LocalTag }

func (l *Local) Respond(ctx context.Context, instruction, content string) (string, error) {
	return chatCompletion(ctx, chatCall{
		provider:  LocalTag,
		url:       l.baseURL,
		apiKey:    l.apiKey,
		model:     l.model,
		maxTokens: l.maxTokens,
		client:    l.client,
	}, instruction, content)
}
