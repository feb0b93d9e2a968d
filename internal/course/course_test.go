package course

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Pottery", "pottery"},
		{"Creative coding with p5.js", "creative-coding-with-p5-js"},
		{"  --Hello,   World!!  ", "hello-world"},
		{"Fundamentals of C++", "fundamentals-of-c"},
		{"ÑANDÚ 2024", "and-2024"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"empty modules", `{"modules":[]}`, true},
		{"sparse module", `{"modules":[{}]}`, true},
		{"wrong leaf types tolerated", `{"modules":[{"lessons":"nope"}]}`, true},
		{"missing modules", `{"topic":"x"}`, false},
		{"modules not array", `{"modules":{}}`, false},
		{"module not object", `{"modules":[1]}`, false},
		{"top level array", `[{"modules":[]}]`, false},
		{"not json", `{modules`, false},
		{"null", `null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidShape([]byte(tt.raw)); got != tt.want {
				t.Errorf("IsValidShape(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	c, err := Normalize([]byte(`{
		"topic": "Bread",
		"modules": [{
			"title": "Dough basics",
			"lessons": [{
				"title": "Flour",
				"quiz": [{"question": "Which?", "options": ["a", 2, null]}],
				"flashcards": [{"front": "Gluten"}],
				"checklist": ["Knead", {"task": "Proof", "done": true}],
				"resources": [{"label": "Guide"}]
			}, "garbage"]
		}]
	}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(c.Modules) != 1 {
		t.Fatalf("modules = %d, want 1", len(c.Modules))
	}
	m := c.Modules[0]
	if m.ID != "dough-basics-0" {
		t.Errorf("module id = %q, want back-filled dough-basics-0", m.ID)
	}
	if len(m.Lessons) != 1 {
		t.Fatalf("lessons = %d, want 1 (non-object entries dropped)", len(m.Lessons))
	}

	l := m.Lessons[0]
	if l.ID != "flour-0" {
		t.Errorf("lesson id = %q, want flour-0", l.ID)
	}
	q := l.Quiz[0]
	if q.AnswerIndex != -1 {
		t.Errorf("missing answerIndex = %d, want -1", q.AnswerIndex)
	}
	if len(q.Options) != 2 || q.Options[1] != "2" {
		t.Errorf("options = %v, want [a 2]", q.Options)
	}
	if l.Flashcards[0].HasBack() {
		t.Error("flashcard without back should not report HasBack")
	}
	if len(l.Checklist) != 2 || l.Checklist[0].Done || !l.Checklist[1].Done {
		t.Errorf("checklist = %+v", l.Checklist)
	}
	if l.Resources[0].Display() != "Guide" {
		t.Errorf("resource display = %q", l.Resources[0].Display())
	}
}

func TestNormalize_NeverNilSlices(t *testing.T) {
	c, err := Normalize([]byte(`{"modules":[{"lessons":[{}]}]}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	l := c.Modules[0].Lessons[0]
	if l.Quiz == nil || l.Flashcards == nil || l.Checklist == nil || l.Resources == nil {
		t.Errorf("nil slice after normalization: %+v", l)
	}
}

func TestNormalize_RejectsBadShape(t *testing.T) {
	for _, raw := range []string{`not json`, `{"modules":"x"}`, `42`} {
		if _, err := Normalize([]byte(raw)); err == nil {
			t.Errorf("Normalize(%q) expected error", raw)
		}
	}
}

func TestNormalize_LegacyMetrics(t *testing.T) {
	c, err := Normalize([]byte(`{
		"modules": [],
		"__metrics": {"provider": "openai", "latency_ms": 812,
			"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}}
	}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	meta := c.Metadata
	if meta.Provider != ProviderExternal || meta.Engine != "openai" || meta.LatencyMs != 812 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Usage == nil || meta.Usage.TotalTokens != 150 || meta.Usage.InputTokens != 100 {
		t.Errorf("usage = %+v", meta.Usage)
	}

	mock, err := Normalize([]byte(`{"modules":[],"__metrics":{"provider":"mock","latency_ms":0}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if mock.Metadata.Provider != ProviderPlaceholder {
		t.Errorf("mock provider = %q, want placeholder", mock.Metadata.Provider)
	}
}

func TestNormalize_MetricsFillMetadataBlanks(t *testing.T) {
	c, err := Normalize([]byte(`{
		"modules": [],
		"generationMetadata": {"provider": "external", "latencyMs": 900},
		"__metrics": {"provider": "anthropic", "latency_ms": 5,
			"usage": {"input_tokens": 30, "output_tokens": 70}}
	}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	meta := c.Metadata
	if meta.Engine != "anthropic" {
		t.Errorf("engine = %q, want anthropic", meta.Engine)
	}
	if meta.LatencyMs != 900 {
		t.Errorf("latency = %d, generationMetadata should win", meta.LatencyMs)
	}
	if meta.Usage == nil || meta.Usage.TotalTokens != 100 {
		t.Errorf("usage = %+v", meta.Usage)
	}

	own, err := Normalize([]byte(`{
		"modules": [],
		"generationMetadata": {"provider": "external", "engine": "gemini", "usage": {"totalTokens": 12}},
		"__metrics": {"provider": "openai", "usage": {"total_tokens": 999}}
	}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if own.Metadata.Engine != "gemini" || own.Metadata.Usage.TotalTokens != 12 {
		t.Errorf("metadata = %+v, usage = %+v", own.Metadata, own.Metadata.Usage)
	}
}

func TestAccessors_NilSafe(t *testing.T) {
	var c *Course
	if c.ModuleByID("x") != nil || c.FirstModule() != nil || c.LessonCount() != 0 {
		t.Error("nil course accessors should return zero values")
	}
	var m *Module
	if m.LessonByID("x") != nil || m.FirstLesson() != nil {
		t.Error("nil module accessors should return nil")
	}
	var l *Lesson
	if l.ToggleChecklist(0) {
		t.Error("nil lesson toggle should report false")
	}
}

func TestQuizItem_IsCorrect(t *testing.T) {
	tests := []struct {
		name   string
		item   QuizItem
		choice int
		want   bool
	}{
		{"match", QuizItem{Options: []string{"a", "b"}, AnswerIndex: 1}, 1, true},
		{"mismatch", QuizItem{Options: []string{"a", "b"}, AnswerIndex: 1}, 0, false},
		{"answer out of range", QuizItem{Options: []string{"a"}, AnswerIndex: 7}, 0, false},
		{"no options", QuizItem{AnswerIndex: 0}, 0, false},
		{"negative choice", QuizItem{Options: []string{"a"}, AnswerIndex: -1}, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.IsCorrect(tt.choice); got != tt.want {
				t.Errorf("IsCorrect(%d) = %v, want %v", tt.choice, got, tt.want)
			}
		})
	}
}

func TestLesson_ToggleChecklist(t *testing.T) {
	l := &Lesson{Checklist: []ChecklistItem{{Task: "a"}}}
	if !l.ToggleChecklist(0) || !l.Checklist[0].Done {
		t.Fatal("expected item 0 to be done")
	}
	if l.ToggleChecklist(3) || l.ToggleChecklist(-1) {
		t.Error("out of range toggle should be a no-op")
	}
	l.ToggleChecklist(0)
	if l.Checklist[0].Done {
		t.Error("second toggle should clear done")
	}
}

func TestPlaceholder_Shape(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	now := time.UnixMilli(1700000000000)

	for range 20 {
		c := Placeholder(Brief{Topic: "Pottery", Level: "Beginner"}, PlaceholderOptions{Rand: rng, Now: now})

		if c.Metadata.Provider != ProviderPlaceholder || c.Metadata.LatencyMs != 0 {
			t.Fatalf("metadata = %+v", c.Metadata)
		}
		if c.ID != "pottery-1700000000000" {
			t.Fatalf("id = %q", c.ID)
		}
		if c.EstimatedHours < 10 || c.EstimatedHours > 15 {
			t.Fatalf("estimatedHours = %d", c.EstimatedHours)
		}
		if len(c.Modules) != 4 {
			t.Fatalf("modules = %d, want 4", len(c.Modules))
		}
		for _, m := range c.Modules {
			if len(m.Lessons) != 3 {
				t.Fatalf("module %s lessons = %d, want 3", m.ID, len(m.Lessons))
			}
			for _, l := range m.Lessons {
				if len(l.Quiz) != 1 || len(l.Flashcards) != 2 || len(l.Checklist) != 2 || len(l.Resources) != 1 {
					t.Fatalf("lesson %s has wrong shape: %+v", l.ID, l)
				}
				if !l.Quiz[0].HasValidAnswer() || len(l.Quiz[0].Options) != 4 {
					t.Fatalf("lesson %s quiz answerIndex = %d", l.ID, l.Quiz[0].AnswerIndex)
				}
				for _, item := range l.Checklist {
					if item.Done {
						t.Fatalf("lesson %s checklist starts done", l.ID)
					}
				}
			}
		}
	}
}

func TestPlaceholder_Defaults(t *testing.T) {
	c := Placeholder(Brief{Topic: "  Chess  "}, PlaceholderOptions{})
	if c.Topic != "Chess" || c.Level != DefaultLevel || c.Audience != DefaultAudience {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.Goal != "Learn Chess through practice" {
		t.Errorf("goal = %q", c.Goal)
	}
	if c.Modules[0].ID != "fundamentals-of-chess-0" {
		t.Errorf("module id = %q", c.Modules[0].ID)
	}
	if c.Modules[0].Lessons[2].ID != "fundamentals-of-chess-2" {
		t.Errorf("lesson id = %q", c.Modules[0].Lessons[2].ID)
	}
}

func TestEnsureID(t *testing.T) {
	c := &Course{Topic: "Knots"}
	c.EnsureID(time.UnixMilli(42))
	if c.ID != "knots-42" {
		t.Errorf("id = %q", c.ID)
	}
	c.EnsureID(time.UnixMilli(99))
	if c.ID != "knots-42" {
		t.Error("EnsureID must not overwrite an existing id")
	}
	if got := NewID("", time.UnixMilli(1)); got != "course-1" {
		t.Errorf("NewID empty topic = %q", got)
	}
}
