package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocal_Respond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify no Authorization header when no API key is set
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no Authorization header for keyless local server")
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}

		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "Purpose: tests"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	t.Setenv("CHANGELENS_LOCAL_API_KEY", "")
	l, err := NewLocal("ollama", Settings{Model: "llama3", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewLocal error: %v", err)
	}

	text, err := l.Respond(context.Background(), "test", "test")
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if text != "Purpose: tests" {
		t.Errorf("text = %q, want %q", text, "Purpose: tests")
	}
}

func TestLocal_RespondWithAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-local-key" {
			t.Error("Missing or wrong Authorization header")
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	l := &Local{
		apiKey:  "test-local-key",
		model:   "llama3",
		baseURL: server.URL,
		client:  server.Client(),
	}

	if _, err := l.Respond(context.Background(), "test", "test"); err != nil {
		t.Fatalf("Respond error: %v", err)
	}
}

func TestLocal_Name(t *testing.T) {
	l := &Local{model: "test"}
	if l.Name() != LocalTag {
		t.Errorf("Name() = %q, want %q", l.Name(), LocalTag)
	}
}

func TestNewLocal_URLNormalization(t *testing.T) {
	tests := []struct {
		name    string
		flavor  string
		host    string
		wantURL string
	}{
		{"default", "ollama", "", "http://localhost:11434/v1/chat/completions"},
		{"lmstudio default", "lmstudio", "", "http://localhost:1234/v1/chat/completions"},
		{"trailing slash", "local", "http://localhost:11434/", "http://localhost:11434/v1/chat/completions"},
		{"with v1", "local", "http://localhost:11434/v1", "http://localhost:11434/v1/chat/completions"},
		{"with full path", "local", "http://localhost:11434/v1/chat/completions", "http://localhost:11434/v1/chat/completions"},
		{"bare host", "local", "192.168.1.100:11434", "http://192.168.1.100:11434/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OLLAMA_HOST", tt.host)

			l, err := NewLocal(tt.flavor, Settings{Model: "llama3"})
			if err != nil {
				t.Fatalf("NewLocal error: %v", err)
			}
			if l.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", l.baseURL, tt.wantURL)
			}
		})
	}
}
