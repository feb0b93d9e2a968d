package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileState is the on-disk layout of the JSON engine.
type fileState struct {
	Values map[string]json.RawMessage `json:"values"`
	Events []LLMEvent                 `json:"events"`
}

// JSONFile is a Backend persisted as a single JSON document. Every write
// rewrites the file through a temp file and rename so a crash never leaves
// it half-written.
type JSONFile struct {
	*Memory
	filePath string
}

var _ Backend = (*JSONFile)(nil)

// OpenJSONFile loads filePath, or starts empty when it does not exist.
func OpenJSONFile(filePath string) (*JSONFile, error) {
	s := &JSONFile{Memory: NewMemory(), filePath: filePath}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.Memory.afterWrite = s.persistLocked
	return s, nil
}

func (s *JSONFile) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", s.filePath, err)
	}
	if len(data) == 0 {
		return nil
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	for k, v := range state.Values {
		s.Memory.values[k] = []byte(v)
	}
	s.Memory.events = state.Events
	return nil
}

// persistLocked is called by Memory with its lock held.
func (s *JSONFile) persistLocked() error {
	state := fileState{
		Values: make(map[string]json.RawMessage, len(s.Memory.values)),
		Events: s.Memory.events,
	}
	for k, v := range s.Memory.values {
		if json.Valid(v) {
			state.Values[k] = v
			continue
		}
		// Non-JSON values are kept as JSON strings so the file stays valid.
		quoted, _ := json.Marshal(string(v))
		state.Values[k] = quoted
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("replace %s: %w", s.filePath, err)
	}
	return nil
}
