package generate

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/coursegen/internal/course"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Upper bounds, in characters, on what is sent to the generation
// endpoint. Longer input is cut, never rejected.
const (
	MaxTopicLen    = 200
	MaxLevelLen    = 80
	MaxAudienceLen = 200
	MaxGoalLen     = 500
)

// Request is what the user asks a course for. A non-blank topic is the
// only requirement.
type Request struct {
	Topic    string `json:"topic" validate:"required"`
	Level    string `json:"level"`
	Audience string `json:"audience"`
	Goal     string `json:"goal"`
}

// ValidationError is a user-correctable problem with a Request. It blocks
// generation before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Trimmed returns r with surrounding whitespace removed from every field.
func (r Request) Trimmed() Request {
	return Request{
		Topic:    strings.TrimSpace(r.Topic),
		Level:    strings.TrimSpace(r.Level),
		Audience: strings.TrimSpace(r.Audience),
		Goal:     strings.TrimSpace(r.Goal),
	}
}

// Bounded returns the trimmed request with every field cut to its upper
// bound. This is the payload sent upstream.
func (r Request) Bounded() Request {
	t := r.Trimmed()
	return Request{
		Topic:    truncateRunes(t.Topic, MaxTopicLen),
		Level:    truncateRunes(t.Level, MaxLevelLen),
		Audience: truncateRunes(t.Audience, MaxAudienceLen),
		Goal:     truncateRunes(t.Goal, MaxGoalLen),
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// Validate checks the trimmed request. It returns a *ValidationError for
// the first failing field.
func (r Request) Validate() error {
	err := validate.Struct(r.Trimmed())
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "Please enter a topic."}
	default:
		return &ValidationError{Field: field, Message: field + " is invalid."}
	}
}

// Brief converts the request into the defaults-filled brief used for
// placeholder synthesis and for filling gaps in generated courses.
func (r Request) Brief() course.Brief {
	t := r.Trimmed()
	return course.Brief{
		Topic:    t.Topic,
		Level:    t.Level,
		Audience: t.Audience,
		Goal:     t.Goal,
	}.WithDefaults()
}
