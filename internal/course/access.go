package course

// Accessors in this file are total: they accept nil receivers and
// out-of-range indexes and fall back to zero values instead of panicking.

// ModuleByID returns the module with the given id, or nil.
func (c *Course) ModuleByID(id string) *Module {
	if c == nil || id == "" {
		return nil
	}
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i]
		}
	}
	return nil
}

// FirstModule returns the first module, or nil when the course is empty.
func (c *Course) FirstModule() *Module {
	if c == nil || len(c.Modules) == 0 {
		return nil
	}
	return &c.Modules[0]
}

// LessonCount returns the number of lessons across all modules.
func (c *Course) LessonCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

// LessonByID returns the lesson with the given id, or nil.
func (m *Module) LessonByID(id string) *Lesson {
	if m == nil || id == "" {
		return nil
	}
	for i := range m.Lessons {
		if m.Lessons[i].ID == id {
			return &m.Lessons[i]
		}
	}
	return nil
}

// FirstLesson returns the first lesson, or nil when the module has none.
func (m *Module) FirstLesson() *Lesson {
	if m == nil || len(m.Lessons) == 0 {
		return nil
	}
	return &m.Lessons[0]
}

// ToggleChecklist flips the done flag of item i. Out-of-range is a no-op
// and reports false.
func (l *Lesson) ToggleChecklist(i int) bool {
	if l == nil || i < 0 || i >= len(l.Checklist) {
		return false
	}
	l.Checklist[i].Done = !l.Checklist[i].Done
	return true
}

// IsCorrect reports whether choice matches the authored answer. A malformed
// AnswerIndex simply never matches.
func (q QuizItem) IsCorrect(choice int) bool {
	if choice < 0 || choice >= len(q.Options) {
		return false
	}
	return choice == q.AnswerIndex
}

// HasValidAnswer reports whether AnswerIndex points at one of the options.
func (q QuizItem) HasValidAnswer() bool {
	return q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options)
}

// HasBack reports whether the card has something to reveal.
func (f Flashcard) HasBack() bool {
	return f.Back != ""
}

// Display returns the best label for a resource link.
func (r Resource) Display() string {
	switch {
	case r.Label != "":
		return r.Label
	case r.URL != "":
		return r.URL
	default:
		return "Resource"
	}
}
