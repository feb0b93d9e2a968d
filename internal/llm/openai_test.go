package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		model:  "gpt-4.1",
	}
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4.1-2025-04-14",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": finish,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	}
}

func apiError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": typ, "message": msg},
	})
}

func TestOpenAIProvider_JSONMode(t *testing.T) {
	var sent map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"topic":"Pottery","modules":[]}`, "stop"))
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You design courses.",
		Messages:  []Message{{Role: RoleUser, Content: "Topic: Pottery"}},
		JSONMode:  true,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	format, _ := sent["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("response_format = %v, want json_object", sent["response_format"])
	}
	msgs, _ := sent["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 || resp.Usage.TotalTokens != 65 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.Model != "gpt-4.1-2025-04-14" {
		t.Fatalf("model = %q", resp.Model)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_StripsCodeFence(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("```json\n{\"modules\":[]}\n```", "stop"))
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"modules":[]}` {
		t.Fatalf("content = %s", resp.Content)
	}
}

func TestOpenAIProvider_NotJSON(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("Sure! Here is your course.", "stop"))
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		JSONMode: true,
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
	if StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("StatusOf = %d, want 502", StatusOf(err))
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"modules":[`, "length"))
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(t.Context(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		JSONMode: true,
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		rateLimit  bool
	}{
		{"rate limit", http.StatusTooManyRequests, http.StatusTooManyRequests, true},
		{"bad key", http.StatusUnauthorized, http.StatusUnauthorized, false},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				apiError(w, tt.status, "error", tt.name)
			})
			_, err := p.Generate(t.Context(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			var rl *ErrRateLimit
			if errors.As(err, &rl) != tt.rateLimit {
				t.Fatalf("rate limit classification wrong: %T (%v)", err, err)
			}
			if !tt.rateLimit {
				var unavail *ErrProviderUnavailable
				if !errors.As(err, &unavail) {
					t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
				}
			}
			if got := StatusOf(err); got != tt.wantStatus {
				t.Fatalf("StatusOf = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestOpenAIProvider_ModelID(t *testing.T) {
	p := &OpenAIProvider{model: "gpt-4.1"}
	if p.ModelID() != "gpt-4.1" {
		t.Fatalf("expected 'gpt-4.1', got %q", p.ModelID())
	}
}

func TestOpenAIProvider_BaseURLOverride(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o",
		BaseURL: "https://proxy.example/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Fatalf("expected 'gpt-4o', got %q", p.ModelID())
	}

	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
