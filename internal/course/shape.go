package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// shapeDefinition is deliberately loose: the document must be an object
// carrying a modules array of objects. Everything below that is repaired by
// Normalize rather than rejected here.
var shapeDefinition = map[string]any{
	"type":     "object",
	"required": []any{"modules"},
	"properties": map[string]any{
		"modules": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
}

const shapeURL = "schema://course-shape.json"

var (
	shapeOnce   sync.Once
	shapeSchema *jsonschema.Schema
	shapeErr    error
)

// ErrNotJSON is wrapped by ValidateShape when the input does not parse.
var ErrNotJSON = errors.New("not valid JSON")

func compiledShape() (*jsonschema.Schema, error) {
	shapeOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(shapeURL, shapeDefinition); err != nil {
			shapeErr = fmt.Errorf("add resource: %w", err)
			return
		}
		shapeSchema, shapeErr = c.Compile(shapeURL)
	})
	return shapeSchema, shapeErr
}

// ValidateShape reports why raw is not a course document, or nil when it is.
func ValidateShape(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %w", ErrNotJSON, err)
	}
	return validateParsed(parsed)
}

// IsValidShape is the boolean form of ValidateShape.
func IsValidShape(raw []byte) bool {
	return ValidateShape(raw) == nil
}

func validateParsed(parsed any) error {
	schema, err := compiledShape()
	if err != nil {
		return fmt.Errorf("compile course shape: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("course shape: %w", err)
	}
	return nil
}
