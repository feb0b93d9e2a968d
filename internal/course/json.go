package course

import (
	"bytes"
	"encoding/json"
)

// The encoders below write nil slices as [] so that any document this
// package produces passes the shape check on the way back in.

func (c Course) MarshalJSON() ([]byte, error) {
	type plain Course
	if c.Modules == nil {
		c.Modules = []Module{}
	}
	return marshalPlain(plain(c))
}

func (m Module) MarshalJSON() ([]byte, error) {
	type plain Module
	if m.Lessons == nil {
		m.Lessons = []Lesson{}
	}
	return marshalPlain(plain(m))
}

func (l Lesson) MarshalJSON() ([]byte, error) {
	type plain Lesson
	if l.Quiz == nil {
		l.Quiz = []QuizItem{}
	}
	if l.Flashcards == nil {
		l.Flashcards = []Flashcard{}
	}
	if l.Checklist == nil {
		l.Checklist = []ChecklistItem{}
	}
	if l.Resources == nil {
		l.Resources = []Resource{}
	}
	return marshalPlain(plain(l))
}

func (q QuizItem) MarshalJSON() ([]byte, error) {
	type plain QuizItem
	if q.Options == nil {
		q.Options = []string{}
	}
	return marshalPlain(plain(q))
}

// marshalPlain encodes without HTML escaping, matching the exporter.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
