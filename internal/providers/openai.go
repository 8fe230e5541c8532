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

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Backend for OpenAI's chat completions API.
type OpenAI struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// NewOpenAI creates an OpenAI backend. The key comes from s.APIKey or
// OPENAI_API_KEY.
func NewOpenAI(s Settings) (*OpenAI, error) {
	key := s.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, missingKey(OpenAITag, "OPENAI_API_KEY")
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:    key,
		model:     s.Model,
		baseURL:   baseURL,
		maxTokens: s.maxTokens(),
		client:    &http.Client{Timeout: s.timeout(120 * time.Second)},
	}, nil
}

func (o *OpenAI) Name() string { return OpenAITag }

func (o *OpenAI) Respond(ctx context.Context, instruction, content string) (string, error) {
	return chatCompletion(ctx, chatCall{
		provider:  OpenAITag,
		url:       o.baseURL,
		apiKey:    o.apiKey,
		model:     o.model,
		maxTokens: o.maxTokens,
		client:    o.client,
	}, instruction, content)
}

// chatCall holds what an OpenAI-compatible request needs.
type chatCall struct {
	provider  string
	url       string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

func chatCompletion(ctx context.Context, c chatCall, instruction, content string) (string, error) {
	body := openaiRequest{
		Model: c.model,
		Messages: []openaiMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: content},
		},
		MaxTokens: c.maxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "marshaling request")
	}

	var text string
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "creating request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		httpResp, err := c.client.Do(httpReq)
		if err != nil {
			return &BackendError{Provider: c.provider, Message: "sending request", Err: err}
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &BackendError{Provider: c.provider, Message: "reading response", Err: err}
		}
		if httpResp.StatusCode != http.StatusOK {
			return statusError(c.provider, httpResp.StatusCode, respBody)
		}

		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return &BackendError{Provider: c.provider, Message: "parsing response", Err: err}
		}
		if len(result.Choices) == 0 {
			return &BackendError{Provider: c.provider, Message: "no choices in response"}
		}
		if result.Choices[0].Message.Content == "" {
			return &BackendError{Provider: c.provider, Message: "empty text content in API response"}
		}

		text = result.Choices[0].Message.Content
		return nil
	})

	return text, err
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
