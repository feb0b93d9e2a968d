package llm

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Lesson title"},
			"level": map[string]any{"type": "string", "enum": []any{"Beginner", "Intermediate", "Advanced"}},
			"hours": map[string]any{"type": "integer"},
			"quiz": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"answerIndex": map[string]any{"type": "integer"},
					},
				},
			},
		},
		"required": []any{"title", "quiz"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["title"].Description != "Lesson title" {
		t.Fatalf("description not carried: %q", schema.Properties["title"].Description)
	}
	if len(schema.Properties["level"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["level"].Enum))
	}
	quiz := schema.Properties["quiz"]
	if quiz.Type != genai.TypeArray || quiz.Items.Type != genai.TypeObject {
		t.Fatalf("quiz = %s of %s", quiz.Type, quiz.Items.Type)
	}
	if quiz.Items.Properties["answerIndex"].Type != genai.TypeInteger {
		t.Fatalf("answerIndex type = %s", quiz.Items.Properties["answerIndex"].Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rate limit", genai.APIError{Code: http.StatusTooManyRequests, Message: "quota"}, http.StatusTooManyRequests},
		{"bad key", genai.APIError{Code: http.StatusForbidden, Message: "denied"}, http.StatusForbidden},
		{"transport", errors.New("dial tcp: refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(mapGeminiError(tt.err)); got != tt.want {
				t.Errorf("StatusOf = %d, want %d", got, tt.want)
			}
		})
	}
}
