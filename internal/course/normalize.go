package course

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize parses raw, checks the document shape and returns a canonical
// Course: every slice is non-nil, missing strings are empty, missing numbers
// are zero and a missing answerIndex is -1. Wrong-typed leaves are coerced
// where that is unambiguous and dropped otherwise.
//
// Missing module and lesson ids are back-filled as slug(title)-index so that
// progress and selection keys stay stable across reloads. A legacy
// "__metrics" block supplies the generation metadata when the document
// carries none, and otherwise fills its missing engine and usage.
func Normalize(raw []byte) (*Course, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJSON, err)
	}
	if err := validateParsed(parsed); err != nil {
		return nil, err
	}
	return fromObject(parsed.(map[string]any)), nil
}

func fromObject(obj map[string]any) *Course {
	c := &Course{
		ID:             str(obj["id"]),
		Topic:          str(obj["topic"]),
		Goal:           str(obj["goal"]),
		Audience:       str(obj["audience"]),
		Level:          str(obj["level"]),
		EstimatedHours: integer(obj["estimatedHours"], 0),
		Modules:        []Module{},
	}

	for i, m := range objects(obj["modules"]) {
		c.Modules = append(c.Modules, moduleFrom(m, i))
	}

	meta, hasMeta := obj["generationMetadata"].(map[string]any)
	legacy, hasLegacy := obj["__metrics"].(map[string]any)
	switch {
	case hasMeta && hasLegacy:
		c.Metadata = metadataFrom(meta)
		c.Metadata.fillBlanks(MetadataFromMetrics(legacy))
	case hasMeta:
		c.Metadata = metadataFrom(meta)
	case hasLegacy:
		c.Metadata = MetadataFromMetrics(legacy)
	}
	return c
}

// fillBlanks copies engine and usage from other where m has none.
func (m *GenerationMetadata) fillBlanks(other GenerationMetadata) {
	if m.Engine == "" {
		m.Engine = other.Engine
	}
	if m.Usage == nil {
		m.Usage = other.Usage
	}
}

func moduleFrom(obj map[string]any, idx int) Module {
	m := Module{
		ID:      str(obj["id"]),
		Title:   str(obj["title"]),
		Summary: str(obj["summary"]),
		Lessons: []Lesson{},
	}
	if m.ID == "" {
		m.ID = fallbackID(m.Title, "module", idx)
	}
	for i, l := range objects(obj["lessons"]) {
		m.Lessons = append(m.Lessons, lessonFrom(l, i))
	}
	return m
}

func lessonFrom(obj map[string]any, idx int) Lesson {
	l := Lesson{
		ID:         str(obj["id"]),
		Title:      str(obj["title"]),
		Concept:    str(obj["concept"]),
		Explainer:  str(obj["explainer"]),
		Quiz:       []QuizItem{},
		Flashcards: []Flashcard{},
		Checklist:  []ChecklistItem{},
		Resources:  []Resource{},
	}
	if l.ID == "" {
		l.ID = fallbackID(l.Title, "lesson", idx)
	}

	for _, q := range objects(obj["quiz"]) {
		item := QuizItem{
			Question:    str(q["question"]),
			Options:     strs(q["options"]),
			AnswerIndex: integer(q["answerIndex"], -1),
			Explanation: str(q["explanation"]),
		}
		l.Quiz = append(l.Quiz, item)
	}
	for _, f := range objects(obj["flashcards"]) {
		l.Flashcards = append(l.Flashcards, Flashcard{Front: str(f["front"]), Back: str(f["back"])})
	}
	for _, item := range list(obj["checklist"]) {
		switch v := item.(type) {
		case map[string]any:
			l.Checklist = append(l.Checklist, ChecklistItem{Task: str(v["task"]), Done: boolean(v["done"])})
		case string:
			l.Checklist = append(l.Checklist, ChecklistItem{Task: v})
		}
	}
	for _, item := range list(obj["resources"]) {
		switch v := item.(type) {
		case map[string]any:
			l.Resources = append(l.Resources, Resource{Label: str(v["label"]), URL: str(v["url"])})
		case string:
			l.Resources = append(l.Resources, Resource{URL: v})
		}
	}
	return l
}

func metadataFrom(obj map[string]any) GenerationMetadata {
	meta := GenerationMetadata{
		Provider:  str(obj["provider"]),
		Engine:    str(obj["engine"]),
		LatencyMs: int64(integer(obj["latencyMs"], 0)),
	}
	if u, ok := obj["usage"].(map[string]any); ok {
		meta.Usage = usageFrom(u)
	}
	return meta
}

// MetadataFromMetrics converts an endpoint "__metrics" block
// ({provider, model?, latency_ms?, usage?}) into GenerationMetadata.
// A provider of "mock" marks a locally synthesized course.
func MetadataFromMetrics(obj map[string]any) GenerationMetadata {
	engine := str(obj["provider"])
	meta := GenerationMetadata{
		Provider:  ProviderExternal,
		Engine:    engine,
		LatencyMs: int64(integer(obj["latency_ms"], 0)),
	}
	if engine == "mock" {
		meta.Provider = ProviderPlaceholder
		meta.Engine = ""
	}
	if u, ok := obj["usage"].(map[string]any); ok {
		meta.Usage = usageFrom(u)
	}
	return meta
}

// usageFrom accepts both the camelCase document form and the snake_case
// counters chat-completion APIs report.
func usageFrom(obj map[string]any) *Usage {
	u := &Usage{
		InputTokens:  firstInt(obj, "inputTokens", "input_tokens", "prompt_tokens"),
		OutputTokens: firstInt(obj, "outputTokens", "output_tokens", "completion_tokens"),
		TotalTokens:  firstInt(obj, "totalTokens", "total_tokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

// EnsureID assigns slug(topic)-<unix millis> when the course has no id.
func (c *Course) EnsureID(now time.Time) {
	if c == nil || c.ID != "" {
		return
	}
	c.ID = NewID(c.Topic, now)
}

// NewID derives a course id from its topic and a creation time.
func NewID(topic string, now time.Time) string {
	base := Slug(topic)
	if base == "" {
		base = "course"
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

func fallbackID(title, kind string, idx int) string {
	base := Slug(title)
	if base == "" {
		base = kind
	}
	return base + "-" + strconv.Itoa(idx)
}

func list(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return nil
}

func objects(v any) []map[string]any {
	var out []map[string]any
	for _, item := range list(v) {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func strs(v any) []string {
	out := []string{}
	for _, item := range list(v) {
		if item == nil {
			continue
		}
		out = append(out, str(item))
	}
	return out
}

func integer(v any, def int) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return int(math.Round(n))
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

func boolean(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	case float64:
		return b != 0
	}
	return false
}

func firstInt(obj map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return integer(v, 0)
		}
	}
	return 0
}
