package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns one fresh instance of every engine.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	js, err := OpenJSONFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return map[string]Backend{
		EngineSQLite: openTestStore(t),
		EngineJSON:   js,
		EngineMemory: NewMemory(),
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestKV_Contract(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			_, ok, err := b.Get(ctx, "course:active")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Set(ctx, "course:active", []byte(`{"id":"a"}`)))
			require.NoError(t, b.Set(ctx, "course:active", []byte(`{"id":"b"}`)))

			got, ok, err := b.Get(ctx, "course:active")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"id":"b"}`, string(got))

			require.NoError(t, b.Remove(ctx, "course:active"))
			require.NoError(t, b.Remove(ctx, "course:active"))
			_, ok, err = b.Get(ctx, "course:active")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	type sel struct {
		ModuleID string `json:"moduleId"`
	}
	require.NoError(t, SetJSON(ctx, m, "course:x:sel", sel{ModuleID: "m1"}))

	var got sel
	ok, err := GetJSON(ctx, m, "course:x:sel", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "m1", got.ModuleID)

	ok, err = GetJSON(ctx, m, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "bad", []byte("{")))
	_, err = GetJSON(ctx, m, "bad", &got)
	assert.Error(t, err)
}

func TestLLMEvents_Contract(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			events := []LLMRequestEventData{
				{Provider: "openai", Model: "gpt-4.1", Purpose: "course", InputTokens: 100, OutputTokens: 900, LatencyMs: 1200, Success: true},
				{Provider: "openai", Model: "gpt-4.1", Purpose: "course", InputTokens: 50, LatencyMs: 800, Success: false, ErrorMessage: "rate limited"},
				{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "course-retry", InputTokens: 10, OutputTokens: 20, LatencyMs: 100, Success: true},
			}
			for _, e := range events {
				require.NoError(t, b.AppendLLMRequest(ctx, e))
			}

			all, err := b.QueryLLMEvents(ctx, QueryOpts{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "claude-sonnet-4-5", all[0].Model, "newest first")

			limited, err := b.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "course"})
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "rate limited", limited[0].ErrorMessage)

			first, err := b.GetLLMEvent(ctx, all[2].ID)
			require.NoError(t, err)
			require.NotNil(t, first)
			assert.True(t, first.Success)
			assert.Equal(t, 900, first.OutputTokens)

			missing, err := b.GetLLMEvent(ctx, 999)
			require.NoError(t, err)
			assert.Nil(t, missing)

			byPurpose, err := b.LLMUsageByPurpose(ctx)
			require.NoError(t, err)
			require.Len(t, byPurpose, 2)
			assert.Equal(t, PurposeUsage{Purpose: "course", Calls: 2, InputTokens: 150, OutputTokens: 900, AvgLatencyMs: 1000}, byPurpose[0])

			byModel, err := b.LLMUsageByModel(ctx)
			require.NoError(t, err)
			require.Len(t, byModel, 2)
			assert.Equal(t, ModelUsage{Model: "claude-sonnet-4-5", Calls: 1, InputTokens: 10, OutputTokens: 20}, byModel[0])
			assert.Equal(t, 1, byModel[1].Calls, "failed calls are not billed")
		})
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursegen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "course:c1:l1:quiz", []byte("50")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(ctx, "course:c1:l1:quiz")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "50", string(got))
}

func TestSQLite_SetUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Set(ctx, "course:active", []byte(`{"id":"a"}`)))
	require.NoError(t, s.Set(ctx, "course:active", []byte(`{"id":"b"}`)))
	require.NoError(t, s.Set(ctx, "course:a:selection", []byte(`{}`)))

	n, err := s.Client().KVEntry.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "second Set on a key must update, not insert")
}

func TestSQLite_QueryTimeRange(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	before := time.Now().Add(-time.Minute)
	require.NoError(t, s.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4.1", Purpose: "course", Success: true}))

	got, err := s.QueryLLMEvents(ctx, QueryOpts{From: before})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Timestamp.IsZero())

	got, err = s.QueryLLMEvents(ctx, QueryOpts{To: before})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONFile_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	s, err := OpenJSONFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "course:c1:l1:done", []byte("true")))
	require.NoError(t, s.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4.1", Success: true}))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	s2, err := OpenJSONFile(path)
	require.NoError(t, err)
	got, ok, err := s2.Get(ctx, "course:c1:l1:done")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", string(got))

	events, err := s2.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestJSONFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))
	_, err := OpenJSONFile(path)
	assert.Error(t, err)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Set(context.Background(), "k", []byte("1")), ErrClosed)
	_, _, err := m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenEngine(t *testing.T) {
	dir := t.TempDir()
	for _, engine := range []string{"", EngineSQLite, EngineJSON, EngineMemory} {
		b, err := OpenEngine(engine, filepath.Join(dir, "e-"+engine))
		require.NoError(t, err, "engine %q", engine)
		require.NoError(t, b.Close())
	}
	_, err := OpenEngine("redis", "")
	assert.Error(t, err)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("COURSEGEN_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "custom"))

	t.Setenv("COURSEGEN_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "coursegen", "coursegen.db"), p)
}
