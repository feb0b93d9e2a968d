package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/store"
)

func sample() *course.Course {
	return &course.Course{
		ID: "c1",
		Modules: []course.Module{
			{ID: "m1", Lessons: []course.Lesson{{ID: "l1"}, {ID: "l2"}}},
			{ID: "m2", Lessons: []course.Lesson{{ID: "l3"}}},
			{ID: "m3", Lessons: []course.Lesson{}},
		},
	}
}

func TestResolve(t *testing.T) {
	c := sample()
	tests := []struct {
		name       string
		sel        Selection
		wantModule string
		wantLesson string
	}{
		{"exact", Selection{"m1", "l2"}, "m1", "l2"},
		{"zero selection", Selection{}, "m1", "l1"},
		{"stale module", Selection{"gone", "l3"}, "m1", "l1"},
		{"stale lesson", Selection{"m2", "gone"}, "m2", "l3"},
		{"lesson from other module", Selection{"m2", "l1"}, "m2", "l3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, l := Resolve(c, tt.sel)
			require.NotNil(t, m)
			require.NotNil(t, l)
			assert.Equal(t, tt.wantModule, m.ID)
			assert.Equal(t, tt.wantLesson, l.ID)
		})
	}
}

func TestResolve_EmptyModule(t *testing.T) {
	m, l := Resolve(sample(), Selection{ModuleID: "m3"})
	require.NotNil(t, m)
	assert.Equal(t, "m3", m.ID)
	assert.Nil(t, l)
}

func TestResolve_EmptyCourse(t *testing.T) {
	m, l := Resolve(&course.Course{Modules: []course.Module{}}, Selection{"m1", "l1"})
	assert.Nil(t, m)
	assert.Nil(t, l)

	m, l = Resolve(nil, Selection{})
	assert.Nil(t, m)
	assert.Nil(t, l)
}

func TestStore_PickAndGet(t *testing.T) {
	ctx := t.Context()
	kv := store.NewMemory()
	s := NewStore(kv, nil)

	assert.Equal(t, Selection{}, s.Get(ctx, "c1"))

	s.Pick(ctx, "c1", "m2", "l3")
	s.Pick(ctx, "c1", "m2", "l3")
	assert.Equal(t, Selection{ModuleID: "m2", LessonID: "l3"}, s.Get(ctx, "c1"))
	assert.Equal(t, []string{"course:c1:sel"}, kv.Keys())

	m, l := s.Current(ctx, sample())
	assert.Equal(t, "m2", m.ID)
	assert.Equal(t, "l3", l.ID)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (brokenKV) Set(context.Context, string, []byte) error { return errors.New("disk gone") }
func (brokenKV) Remove(context.Context, string) error { return errors.New("disk gone") }

func TestStore_NeverFails(t *testing.T) {
	ctx := t.Context()
	s := NewStore(brokenKV{}, nil)
	s.Pick(ctx, "c1", "m1", "l1")
	assert.Equal(t, Selection{}, s.Get(ctx, "c1"))

	m, l := s.Current(ctx, sample())
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "l1", l.ID)
}
