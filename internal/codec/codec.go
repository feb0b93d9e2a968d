// Package codec converts a course document to and from its file form.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/coursegen/internal/course"
)

// ErrNoCourse is returned when exporting a nil course.
var ErrNoCourse = errors.New("no course to export")

// ImportError reports a file that is not a course document.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid course file: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Export encodes c as two-space indented JSON followed by a newline.
// Only the document is written; progress and selection live elsewhere.
func Export(c *course.Course) ([]byte, error) {
	if c == nil {
		return nil, ErrNoCourse
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns <slug(topic)>.json, or course.json when the topic has
// no usable characters.
func FileName(c *course.Course) string {
	var base string
	if c != nil {
		base = course.Slug(c.Topic)
	}
	if base == "" {
		base = "course"
	}
	return base + ".json"
}

// Import parses data into a normalized course. Any parse or shape problem
// is returned as *ImportError.
func Import(data []byte) (*course.Course, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	c, err := course.Normalize(data)
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	return c, nil
}
