package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Backend for Anthropic's Messages API.
type Anthropic struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// NewAnthropic creates an Anthropic backend. The key comes from s.APIKey or
// ANTHROPIC_API_KEY.
func NewAnthropic(s Settings) (*Anthropic, error) {
	key := s.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, missingKey(AnthropicTag, "ANTHROPIC_API_KEY")
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = anthropicAPIURL
	}
	return &Anthropic{
		apiKey:    key,
		model:     s.Model,
		baseURL:   baseURL,
		maxTokens: s.maxTokens(),
		client:    &http.Client{Timeout: s.timeout(120 * time.Second)},
	}, nil
}

func (a *Anthropic) Name() string { return AnthropicTag }

func (a *Anthropic) Respond(ctx context.Context, instruction, content string) (string, error) {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    instruction,
		Messages: []anthropicMessage{
			{Role: "user", Content: content},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "marshaling request")
	}

	var text string
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "creating request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", a.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

		httpResp, err := a.client.Do(httpReq)
		if err != nil {
			return &BackendError{Provider: AnthropicTag, Message: "sending request", Err: err}
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &BackendError{Provider: AnthropicTag, Message: "reading response", Err: err}
		}
		if httpResp.StatusCode != http.StatusOK {
			return statusError(AnthropicTag, httpResp.StatusCode, respBody)
		}

		var result anthropicResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return &BackendError{Provider: AnthropicTag, Message: "parsing response", Err: err}
		}

		var out string
		for _, block := range result.Content {
			if block.Type == "text" {
				out += block.Text
			}
		}
		if out == "" {
			return &BackendError{Provider: AnthropicTag, Message: "empty text content in API response"}
		}
		text = out
		return nil
	})

	return text, err
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
