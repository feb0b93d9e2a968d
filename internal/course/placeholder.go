package course

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Defaults applied to a Brief with blank fields.
const (
	DefaultLevel    = "Beginner"
	DefaultAudience = "Curious self-learners"
)

// Placeholder layout.
const (
	PlaceholderModules          = 4
	PlaceholderLessonsPerModule = 3
	placeholderOptions          = 4
)

// Brief is what the user asked for: the inputs a course is generated from.
type Brief struct {
	Topic    string
	Level    string
	Audience string
	Goal     string
}

// WithDefaults trims every field and fills blank level, audience and goal.
func (b Brief) WithDefaults() Brief {
	b.Topic = strings.TrimSpace(b.Topic)
	b.Level = strings.TrimSpace(b.Level)
	b.Audience = strings.TrimSpace(b.Audience)
	b.Goal = strings.TrimSpace(b.Goal)
	if b.Level == "" {
		b.Level = DefaultLevel
	}
	if b.Audience == "" {
		b.Audience = DefaultAudience
	}
	if b.Goal == "" {
		b.Goal = fmt.Sprintf("Learn %s through practice", b.Topic)
	}
	return b
}

// PlaceholderOptions controls the non-deterministic parts of Placeholder.
// Zero values use a fresh random source and the current time.
type PlaceholderOptions struct {
	Rand *rand.Rand
	Now  time.Time
}

// Placeholder synthesizes a course locally. The structure is fixed
// (4 modules of 3 lessons, one quiz item, two flashcards, two open checklist
// tasks and one resource per lesson); the quiz answers, estimated hours and
// course id vary between calls.
func Placeholder(b Brief, opts PlaceholderOptions) *Course {
	b = b.WithDefaults()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	titles := [PlaceholderModules]string{
		"Fundamentals of " + b.Topic,
		"Tools and workflow in " + b.Topic,
		"Guided project in " + b.Topic,
		"Best practices and next steps",
	}

	modules := make([]Module, 0, PlaceholderModules)
	for i, title := range titles {
		lessons := make([]Lesson, 0, PlaceholderLessonsPerModule)
		for j := range PlaceholderLessonsPerModule {
			lessons = append(lessons, placeholderLesson(title, j, rng))
		}
		modules = append(modules, Module{
			ID:      fmt.Sprintf("%s-%d", Slug(title), i),
			Title:   title,
			Summary: fmt.Sprintf("What you will learn in %q.", title),
			Lessons: lessons,
		})
	}

	return &Course{
		ID:             NewID(b.Topic, now),
		Topic:          b.Topic,
		Goal:           b.Goal,
		Audience:       b.Audience,
		Level:          b.Level,
		EstimatedHours: 10 + rng.IntN(6),
		Modules:        modules,
		Metadata:       GenerationMetadata{Provider: ProviderPlaceholder},
	}
}

func placeholderLesson(base string, i int, rng *rand.Rand) Lesson {
	s := Slug(base)
	return Lesson{
		ID:        fmt.Sprintf("%s-%d", s, i),
		Title:     fmt.Sprintf("%s · Lesson %d", base, i+1),
		Concept:   fmt.Sprintf("Core idea of %s #%d.", base, i+1),
		Explainer: "Step-by-step explanation with a short exercise.",
		Quiz: []QuizItem{{
			Question:    fmt.Sprintf("Which statement best describes %s?", base),
			Options:     []string{"A", "B", "C", "D"},
			AnswerIndex: rng.IntN(placeholderOptions),
			Explanation: fmt.Sprintf("Connect %s back to the goal.", base),
		}},
		Flashcards: []Flashcard{
			{Front: "Definition of " + base, Back: "A short reminder."},
			{Front: "Example of " + base, Back: "A practical case."},
		},
		Checklist: []ChecklistItem{
			{Task: fmt.Sprintf("Write down 3 ideas about %s", base)},
			{Task: fmt.Sprintf("Build a small example of %s", base)},
		},
		Resources: []Resource{
			{Label: "Article about " + base, URL: "https://example.com/" + s},
		},
	}
}
