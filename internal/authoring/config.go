package authoring

import (
	"time"

	"github.com/abhisek/coursegen/internal/course"
)

// Config holds course authoring settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds a single authoring request including retries.
	Timeout time.Duration

	// Modules and LessonsPerModule are the course dimensions asked of the model.
	Modules          int
	LessonsPerModule int
}

// DefaultConfig returns sensible defaults for course authoring.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        8192,
		Temperature:      0.7,
		Timeout:          60 * time.Second,
		Modules:          course.PlaceholderModules,
		LessonsPerModule: course.PlaceholderLessonsPerModule,
	}
}
