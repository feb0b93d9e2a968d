// Package selection remembers which module and lesson is open per course.
package selection

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/store"
)

// Selection is the persisted {moduleId, lessonId} pair for one course.
type Selection struct {
	ModuleID string `json:"moduleId"`
	LessonID string `json:"lessonId"`
}

// Key returns the port key for a course's selection.
func Key(courseID string) string {
	return "course:" + courseID + ":sel"
}

// Resolve maps sel onto c. Ids that no longer exist fall back to the first
// module and its first lesson; an empty course resolves to nil, nil.
func Resolve(c *course.Course, sel Selection) (*course.Module, *course.Lesson) {
	m := c.ModuleByID(sel.ModuleID)
	if m == nil {
		m = c.FirstModule()
	}
	if m == nil {
		return nil, nil
	}
	l := m.LessonByID(sel.LessonID)
	if l == nil {
		l = m.FirstLesson()
	}
	return m, l
}

// Store persists selections. Reads and writes never fail: store errors are
// logged and the zero Selection is used instead.
type Store struct {
	kv     store.KV
	logger *zap.Logger
}

// NewStore creates a selection store over kv.
func NewStore(kv store.KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logging.OrNop(logger)}
}

// Get returns the stored selection for courseID, zero when unset.
func (s *Store) Get(ctx context.Context, courseID string) Selection {
	var sel Selection
	if _, err := store.GetJSON(ctx, s.kv, Key(courseID), &sel); err != nil {
		s.logger.Warn("read selection", zap.String("course_id", courseID), zap.Error(err))
		return Selection{}
	}
	return sel
}

// Pick stores the selection for courseID. Picking the same pair twice is a no-op.
func (s *Store) Pick(ctx context.Context, courseID, moduleID, lessonID string) {
	sel := Selection{ModuleID: moduleID, LessonID: lessonID}
	if err := store.SetJSON(ctx, s.kv, Key(courseID), sel); err != nil {
		s.logger.Warn("write selection", zap.String("course_id", courseID), zap.Error(err))
	}
}

// Current resolves the stored selection against c.
func (s *Store) Current(ctx context.Context, c *course.Course) (*course.Module, *course.Lesson) {
	if c == nil {
		return nil, nil
	}
	return Resolve(c, s.Get(ctx, c.ID))
}
