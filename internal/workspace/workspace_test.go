package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/codec"
	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/store"
)

func newTestWorkspace(t *testing.T) (*Workspace, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	w := New(kv, nil)
	w.now = func() time.Time { return time.UnixMilli(1000) }
	return w, kv
}

func TestActive_Empty(t *testing.T) {
	w, _ := newTestWorkspace(t)
	c, ok := w.Active(t.Context())
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestReplaceAndActive(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := t.Context()

	orig := course.Placeholder(course.Brief{Topic: "Pottery"}, course.PlaceholderOptions{})
	require.NoError(t, w.Replace(ctx, orig))

	got, ok := w.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, orig, got)
}

func TestReplace_AssignsMissingID(t *testing.T) {
	w, _ := newTestWorkspace(t)
	c := &course.Course{Topic: "Sailing", Modules: []course.Module{}}
	require.NoError(t, w.Replace(t.Context(), c))
	assert.Equal(t, "sailing-1000", c.ID)
}

func TestImport_KeepsPriorOnFailure(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := t.Context()

	prior := &course.Course{ID: "prior", Topic: "Prior", Modules: []course.Module{}}
	require.NoError(t, w.Replace(ctx, prior))

	for _, bad := range []string{"{nope", `{"modules":"x"}`, `{"topic":"no modules"}`} {
		_, err := w.Import(ctx, []byte(bad))
		var ie *codec.ImportError
		require.True(t, errors.As(err, &ie), "input %q gave %v", bad, err)

		got, ok := w.Active(ctx)
		require.True(t, ok)
		assert.Equal(t, "prior", got.ID)
	}
}

func TestImport_ReplacesWholesale(t *testing.T) {
	w, kv := newTestWorkspace(t)
	ctx := t.Context()

	require.NoError(t, w.Replace(ctx, &course.Course{ID: "old", Modules: []course.Module{}}))
	require.NoError(t, kv.Set(ctx, "course:old:l1:quiz", []byte("50")))

	c, err := w.Import(ctx, []byte(`{"id":"new","topic":"New","modules":[{"id":"m","lessons":[{"id":"l"}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "new", c.ID)

	got, ok := w.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)

	_, stillThere, err := kv.Get(ctx, "course:old:l1:quiz")
	require.NoError(t, err)
	assert.True(t, stillThere, "progress of the replaced course is left orphaned")
}

func TestToggleChecklist(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := t.Context()

	assert.ErrorIs(t, w.ToggleChecklist(ctx, nil, "m", "l", 0), ErrNoActiveCourse)

	c := course.Placeholder(course.Brief{Topic: "Pottery"}, course.PlaceholderOptions{})
	require.NoError(t, w.Replace(ctx, c))
	m := c.Modules[0]
	l := m.Lessons[1]

	require.NoError(t, w.ToggleChecklist(ctx, c, m.ID, l.ID, 1))
	assert.True(t, c.Modules[0].Lessons[1].Checklist[1].Done)

	stored, ok := w.Active(ctx)
	require.True(t, ok)
	assert.True(t, stored.Modules[0].Lessons[1].Checklist[1].Done)

	data, err := codec.Export(stored)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"done": true`)

	assert.ErrorIs(t, w.ToggleChecklist(ctx, c, m.ID, l.ID, 9), ErrNotFound)
	assert.ErrorIs(t, w.ToggleChecklist(ctx, c, "missing", l.ID, 0), ErrNotFound)
}

func TestToggleChecklist_EditsGivenCourse(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := t.Context()

	stored := &course.Course{ID: "pottery-old", Topic: "Pottery", Modules: []course.Module{
		{ID: "m", Lessons: []course.Lesson{{ID: "l", Explainer: "OLD", Checklist: []course.ChecklistItem{{Task: "old task"}}}}},
	}}
	require.NoError(t, w.Replace(ctx, stored))

	shown := &course.Course{ID: "pottery-new", Topic: "Pottery", Modules: []course.Module{
		{ID: "m", Lessons: []course.Lesson{{ID: "l", Explainer: "NEW", Checklist: []course.ChecklistItem{{Task: "new task"}}}}},
	}}
	require.NoError(t, w.ToggleChecklist(ctx, shown, "m", "l", 0))

	active, ok := w.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, "pottery-new", active.ID)
	assert.Equal(t, "NEW", active.Modules[0].Lessons[0].Explainer)
	assert.True(t, active.Modules[0].Lessons[0].Checklist[0].Done)
}

// brokenKV stores nothing and fails every write.
type brokenKV struct{ *store.Memory }

func (*brokenKV) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestEdits_StoreFailureKeepsChange(t *testing.T) {
	w := New(&brokenKV{Memory: store.NewMemory()}, nil)
	ctx := t.Context()

	c := &course.Course{ID: "c", Topic: "Knots", Modules: []course.Module{
		{ID: "m", Lessons: []course.Lesson{{ID: "l", Checklist: []course.ChecklistItem{{Task: "tie a bowline"}}}}},
	}}
	err := w.ToggleChecklist(ctx, c, "m", "l", 0)
	assert.ErrorIs(t, err, ErrNotSaved)
	assert.True(t, c.Modules[0].Lessons[0].Checklist[0].Done)

	imported, err := w.Import(ctx, []byte(`{"id":"k","topic":"Knots","modules":[]}`))
	assert.ErrorIs(t, err, ErrNotSaved)
	require.NotNil(t, imported)
	assert.Equal(t, "k", imported.ID)
}

func TestActive_CorruptDocument(t *testing.T) {
	w, kv := newTestWorkspace(t)
	require.NoError(t, kv.Set(t.Context(), ActiveKey, []byte(`{"modules":7}`)))
	_, ok := w.Active(t.Context())
	assert.False(t, ok)
}
