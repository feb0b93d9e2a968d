package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-lesson",
		Description: "A single lesson",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":   map[string]any{"type": "string"},
				"minutes": map[string]any{"type": "integer", "minimum": 0},
				"level":   map[string]any{"type": "string", "enum": []any{"Beginner", "Intermediate", "Advanced"}},
			},
			"required": []any{"title", "minutes"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"title":"Centering clay","minutes":20,"level":"Beginner"}`, false},
		{"valid without optional", `{"title":"Trimming","minutes":15}`, false},
		{"missing required", `{"title":"Glazing"}`, true},
		{"wrong type", `{"title":"Firing","minutes":"ten"}`, true},
		{"invalid enum", `{"title":"Throwing","minutes":9,"level":"Expert"}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name:        "test-module",
		Description: "Module with lessons",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"module": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
					},
					"required": []any{"title"},
				},
				"answerIndexes": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"module", "answerIndexes"},
		},
	}

	valid := json.RawMessage(`{"module":{"title":"Basics"},"answerIndexes":[0,2,1]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"module":{"title":"Basics"},"answerIndexes":["a","b"]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"padded", "  {\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", "```{\"a\":1}```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(stripCodeFence(json.RawMessage(tt.in))); got != tt.want {
				t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFinalizeContent(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		raw     string
		want    string
		wantErr bool
	}{
		{"free text untouched", Request{}, "Hello there", "Hello there", false},
		{"json mode object", Request{JSONMode: true}, "```json\n{\"modules\":[]}\n```", `{"modules":[]}`, false},
		{"json mode prose", Request{JSONMode: true}, "Here is your course!", "", true},
		{"json mode array", Request{JSONMode: true}, `[1,2]`, "", true},
		{"schema", Request{Schema: testSchema()}, `{"title":"x","minutes":1}`, `{"title":"x","minutes":1}`, false},
		{"schema violation", Request{Schema: testSchema()}, `{"title":"x"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := finalizeContent(tt.req, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("finalizeContent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Fatalf("finalizeContent() = %s, want %s", got, tt.want)
			}
		})
	}
}
