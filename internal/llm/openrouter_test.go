package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantErr bool
	}{
		{"valid config", OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4.1"}, false},
		{"empty API key", OpenRouterConfig{Model: "openai/gpt-4.1"}, true},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-sonnet-4.5", BaseURL: "https://custom.openrouter.example/v1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewOpenRouterProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			// Vendor-prefixed ids pass through without friendly-name mapping.
			if err == nil && p.ModelID() != tt.cfg.Model {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.cfg.Model)
			}
		})
	}
}

func TestOpenRouterProvider_UsesOpenAIWire(t *testing.T) {
	var path, title, referer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		title = r.Header.Get("X-Title")
		referer = r.Header.Get("HTTP-Referer")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": "openai/gpt-4.1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": `{"modules":[]}`},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4.1", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Topic: Chess"}},
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/chat/completions" {
		t.Fatalf("path = %q", path)
	}
	if title != "coursegen" || referer == "" {
		t.Fatalf("attribution headers = %q, %q", title, referer)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Fatalf("total tokens = %d", resp.Usage.TotalTokens)
	}
}
