package store

import (
	"fmt"
	"strings"
)

// Engines accepted by OpenEngine.
const (
	EngineSQLite = "sqlite"
	EngineJSON   = "json"
	EngineMemory = "memory"
)

// OpenEngine opens the backend named by engine at path. An empty engine
// selects SQLite. path is ignored by the memory engine.
func OpenEngine(engine, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineSQLite:
		return Open(path)
	case EngineJSON:
		return OpenJSONFile(path)
	case EngineMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store engine: %q", engine)
	}
}
