package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAI_Respond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}

		var body openaiRequest
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("Messages = %+v, want system then user", body.Messages)
		}

		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "Summary: fine"}},
			},
			Usage: openaiUsage{TotalTokens: 50},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	text, err := o.Respond(context.Background(), "instruction", "content")
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if text != "Summary: fine" {
		t.Errorf("text = %q, want %q", text, "Summary: fine")
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(429)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "ok"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	text, err := o.Respond(context.Background(), "test", "test")
	if err != nil {
		t.Fatalf("Respond error after retries: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want %q", text, "ok")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attempts)
	}
}

func TestOpenAI_RetriesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(503)
		w.Write([]byte("unavailable"))
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "k", model: "m", baseURL: server.URL, client: server.Client()}

	_, err := o.Respond(context.Background(), "test", "test")
	var be *BackendError
	if !asBackendError(err, &be) {
		t.Fatalf("expected *BackendError, got %T: %v", err, err)
	}
	if be.Status != 503 || be.Message != "unavailable" || be.Provider != OpenAITag {
		t.Errorf("BackendError = %+v", be)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts (3 retries), got %d", attempts)
	}
}

func TestOpenAI_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: ""}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "test-key", model: "gpt-4o", baseURL: server.URL, client: server.Client()}

	if _, err := o.Respond(context.Background(), "test", "test"); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "test-key", model: "gpt-4o", baseURL: server.URL, client: server.Client()}

	if _, err := o.Respond(context.Background(), "test", "test"); err == nil {
		t.Error("Expected error for no choices")
	}
}

func TestOpenAI_BadRequestNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(400)
		w.Write([]byte(`{"error":"bad model"}`))
	}))
	defer server.Close()

	o := &OpenAI{apiKey: "test-key", model: "nope", baseURL: server.URL, client: server.Client()}

	if _, err := o.Respond(context.Background(), "test", "test"); err == nil {
		t.Fatal("Expected error for 400")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for 400, got %d", attempts)
	}
}
