package llm

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"topic":"Pottery"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"topic":"Chess"}`)},
	)

	resp1, err := mock.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"topic":"Pottery"}` {
		t.Fatalf("unexpected content %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(t.Context(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"topic":"Chess"}` {
		t.Fatalf("unexpected content %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(t.Context(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_JSONModeValidates(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("```json\n{\"modules\":[]}\n```")},
		MockResponse{Content: json.RawMessage(`Sure! Here is your course.`)},
	)

	resp, err := mock.Generate(t.Context(), Request{JSONMode: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"modules":[]}` {
		t.Fatalf("fence not stripped: %s", resp.Content)
	}

	_, err = mock.Generate(t.Context(), Request{JSONMode: true})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})

	_, _ = mock.Generate(t.Context(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(t.Context(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
	mock.Model = "gpt-4.1"
	if mock.ModelID() != "gpt-4.1" {
		t.Fatalf("expected configured model, got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := t.Context()
	if p := PurposeFrom(ctx); p != PurposeUnknown {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeCourse)
	if p := PurposeFrom(ctx); p != "course" {
		t.Fatalf("expected 'course', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantErr    bool
		wantEnvVar string
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true, "ANTHROPIC_API_KEY"},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false, ""},
		{"openai without key", Config{Provider: "openai"}, true, "OPENAI_API_KEY"},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false, ""},
		{"gemini without key", Config{Provider: "gemini"}, true, "GEMINI_API_KEY"},
		{"openrouter without key", Config{Provider: "openrouter"}, true, "OPENROUTER_API_KEY"},
		{"mock needs no key", Config{Provider: "mock"}, false, ""},
		{"unknown provider", Config{Provider: "unknown"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantEnvVar == "" {
				return
			}
			var missing *MissingKeyError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingKeyError, got %T", err)
			}
			if missing.EnvVar != tt.wantEnvVar {
				t.Fatalf("EnvVar = %q, want %q", missing.EnvVar, tt.wantEnvVar)
			}
		})
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"COURSEGEN_LLM_PROVIDER", "COURSEGEN_OPENAI_API_KEY", "COURSEGEN_OPENAI_MODEL",
		"COURSEGEN_OPENAI_BASE_URL", "COURSEGEN_ANTHROPIC_API_KEY", "COURSEGEN_ANTHROPIC_MODEL",
		"COURSEGEN_GEMINI_API_KEY", "COURSEGEN_GEMINI_MODEL", "COURSEGEN_OPENROUTER_API_KEY",
		"COURSEGEN_OPENROUTER_MODEL", "COURSEGEN_LLM_TIMEOUT", "COURSEGEN_LLM_MAX_TOKENS",
	} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfig(t *testing.T) {
	t.Run("nothing set", func(t *testing.T) {
		clearProviderEnv(t)
		if _, ok := DiscoverConfig(); ok {
			t.Fatal("expected no provider")
		}
	})

	t.Run("openai wins over gemini", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "o-key")
		t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")

		cfg, ok := DiscoverConfig()
		if !ok || cfg.Provider != ProviderOpenAI {
			t.Fatalf("provider = %q (%v)", cfg.Provider, ok)
		}
		if cfg.OpenAI.Model != "gpt-4.1-mini" {
			t.Fatalf("model = %q", cfg.OpenAI.Model)
		}
	})

	t.Run("anthropic only", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "a-key")

		cfg, ok := DiscoverConfig()
		if !ok || cfg.Provider != ProviderAnthropic || cfg.Anthropic.APIKey != "a-key" {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults to openai without a key", func(t *testing.T) {
		clearProviderEnv(t)
		cfg := ConfigFromEnv()
		if cfg.Provider != ProviderOpenAI || cfg.OpenAI.Model != "gpt-4.1" {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		var missing *MissingKeyError
		if !errors.As(cfg.Validate(), &missing) {
			t.Fatal("expected a missing key error")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "o-key")
		t.Setenv("COURSEGEN_LLM_PROVIDER", "mock")
		t.Setenv("COURSEGEN_LLM_TIMEOUT", "5s")
		t.Setenv("COURSEGEN_LLM_MAX_TOKENS", "2048")
		t.Setenv("COURSEGEN_OPENAI_BASE_URL", "http://localhost:9999/v1")

		cfg := ConfigFromEnv()
		if cfg.Provider != ProviderMock {
			t.Fatalf("provider = %q", cfg.Provider)
		}
		if cfg.Timeout != 5*time.Second || cfg.MaxTokens != 2048 {
			t.Fatalf("timeout=%s maxTokens=%d", cfg.Timeout, cfg.MaxTokens)
		}
		if cfg.OpenAI.APIKey != "o-key" || cfg.OpenAI.BaseURL != "http://localhost:9999/v1" {
			t.Fatalf("openai config %+v", cfg.OpenAI)
		}
	})

	t.Run("bad numbers ignored", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("COURSEGEN_LLM_TIMEOUT", "soon")
		t.Setenv("COURSEGEN_LLM_MAX_TOKENS", "-3")

		cfg := ConfigFromEnv()
		if cfg.Timeout != 60*time.Second || cfg.MaxTokens != 8192 {
			t.Fatalf("timeout=%s maxTokens=%d", cfg.Timeout, cfg.MaxTokens)
		}
	})
}

func TestNewProvider(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewProvider(t.Context(), Config{Provider: ProviderOpenAI}, nil, nil)
		var missing *MissingKeyError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingKeyError, got %v", err)
		}
	})

	t.Run("mock", func(t *testing.T) {
		p, err := NewProvider(t.Context(), Config{Provider: ProviderMock}, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "mock" {
			t.Fatalf("model = %q", p.ModelID())
		}
	})

	t.Run("openai wrapped", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OpenAI.APIKey = "sk-test"
		p, err := NewProvider(t.Context(), cfg, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.(*RetryProvider); !ok {
			t.Fatalf("expected retry wrapper, got %T", p)
		}
		if p.ModelID() != "gpt-4.1" {
			t.Fatalf("model = %q", p.ModelID())
		}
	})
}

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  *ModelCost
	}{
		{"gpt-4.1", &ModelCost{2, 8}},
		{"gpt-4.1-2025-04-14", &ModelCost{2, 8}},
		{"gpt-4.1-mini-2025-04-14", &ModelCost{0.4, 1.6}},
		{"openai/gpt-4.1", &ModelCost{2, 8}},
		{"claude-sonnet-4-5-20250929", &ModelCost{3, 15}},
		{"mock", nil},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got := LookupCost(tt.model)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("LookupCost(%q) = %v, want %v", tt.model, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("LookupCost(%q) = %+v, want %+v", tt.model, *got, *tt.want)
			}
		})
	}
}

func TestSingleTurn(t *testing.T) {
	req := SingleTurn("be brief", "teach me knots")
	if req.System != "be brief" {
		t.Fatalf("System = %q", req.System)
	}
	if got := req.UserPrompt(); got != "teach me knots" {
		t.Fatalf("UserPrompt = %q", got)
	}

	req.Messages = append(req.Messages, Message{Role: RoleAssistant, Content: "ok"})
	if got := req.UserPrompt(); got != "teach me knots" {
		t.Fatalf("UserPrompt after assistant turn = %q", got)
	}
	if (Request{}).UserPrompt() != "" {
		t.Fatal("empty request should have no user prompt")
	}
}

func TestResponseTruncated(t *testing.T) {
	if (&Response{StopReason: StopEnd}).Truncated() {
		t.Fatal("end should not be truncated")
	}
	if !(&Response{StopReason: StopMaxTokens}).Truncated() {
		t.Fatal("max_tokens should be truncated")
	}
}
