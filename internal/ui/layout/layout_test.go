package layout

import (
	"strings"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{"empty", Status{}, ""},
		{"placeholder", Status{Provider: "placeholder", LatencyMs: 0}, "placeholder"},
		{"external full", Status{Provider: "external", Engine: "openai", LatencyMs: 1234, TotalTokens: 2300}, "openai · 1.2s · 2300 tok"},
		{"external no engine", Status{Provider: "external", LatencyMs: 900}, "external · 0.9s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHeaderIncludesStatus(t *testing.T) {
	out := RenderHeader("Pottery", Status{Provider: "external", Engine: "anthropic"}, 100)
	if !strings.Contains(out, "coursegen") || !strings.Contains(out, "Pottery") || !strings.Contains(out, "anthropic") {
		t.Errorf("header missing parts:\n%s", out)
	}
}

func TestIsTooSmall(t *testing.T) {
	if !IsTooSmall(79, 24) || !IsTooSmall(80, 23) {
		t.Error("expected sizes below the minimum to be too small")
	}
	if IsTooSmall(80, 24) {
		t.Error("80x24 should fit")
	}
}
