package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Backend. Tests use it as a fake and the
// file-backed JSON engine builds on it.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	events []LLMEvent
	closed bool

	// afterWrite runs with mu held after every successful mutation.
	afterWrite func() error
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	prev, had := m.values[key]
	m.values[key] = slices.Clone(value)
	if err := m.persistLocked(); err != nil {
		if had {
			m.values[key] = prev
		} else {
			delete(m.values, key)
		}
		return err
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	prev, had := m.values[key]
	if !had {
		return nil
	}
	delete(m.values, key)
	if err := m.persistLocked(); err != nil {
		m.values[key] = prev
		return err
	}
	return nil
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.values))
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.events = append(m.events, LLMEvent{
		ID:                  len(m.events) + 1,
		Timestamp:           time.Now().UTC(),
		LLMRequestEventData: data,
	})
	if err := m.persistLocked(); err != nil {
		m.events = m.events[:len(m.events)-1]
		return err
	}
	return nil
}

func (m *Memory) QueryLLMEvents(_ context.Context, opts QueryOpts) ([]LLMEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []LLMEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if opts.Purpose != "" && e.Purpose != opts.Purpose {
			continue
		}
		if !opts.From.IsZero() && e.Timestamp.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && e.Timestamp.After(opts.To) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) GetLLMEvent(_ context.Context, id int) (*LLMEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > len(m.events) {
		return nil, nil
	}
	e := m.events[id-1]
	return &e, nil
}

func (m *Memory) LLMUsageByPurpose(_ context.Context) ([]PurposeUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byPurpose := map[string]*PurposeUsage{}
	latency := map[string]int64{}
	for _, e := range m.events {
		u, ok := byPurpose[e.Purpose]
		if !ok {
			u = &PurposeUsage{Purpose: e.Purpose}
			byPurpose[e.Purpose] = u
		}
		u.Calls++
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		latency[e.Purpose] += e.LatencyMs
	}

	out := make([]PurposeUsage, 0, len(byPurpose))
	for p, u := range byPurpose {
		u.AvgLatencyMs = latency[p] / int64(u.Calls)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out, nil
}

func (m *Memory) LLMUsageByModel(_ context.Context) ([]ModelUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byModel := map[string]*ModelUsage{}
	for _, e := range m.events {
		if !e.Success {
			continue
		}
		u, ok := byModel[e.Model]
		if !ok {
			u = &ModelUsage{Model: e.Model}
			byModel[e.Model] = u
		}
		u.Calls++
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
	}

	out := make([]ModelUsage, 0, len(byModel))
	for _, u := range byModel {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

func (m *Memory) persistLocked() error {
	if m.afterWrite == nil {
		return nil
	}
	return m.afterWrite()
}
