// Package workspace holds the active course document.
//
// The active document is stored whole under a single key and replaced
// wholesale: generation, import and checklist edits all write a complete
// new document. Progress and selection records for a replaced course are
// left where they are.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/codec"
	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/store"
)

// ActiveKey is the port key of the active course document.
const ActiveKey = "course:active"

// ErrNoActiveCourse is returned by edits when nothing is loaded.
var ErrNoActiveCourse = errors.New("no active course")

// ErrNotFound is returned when a module or lesson id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrNotSaved marks an edit that took effect in memory but could not be
// stored.
var ErrNotSaved = errors.New("not saved")

// Workspace reads and replaces the active course.
type Workspace struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
}

// New creates a workspace over kv.
func New(kv store.KV, logger *zap.Logger) *Workspace {
	return &Workspace{kv: kv, logger: logging.OrNop(logger), now: time.Now}
}

// Active returns the active course. A missing or unreadable document
// reports false rather than an error so the viewer can fall back to the
// prompt screen.
func (w *Workspace) Active(ctx context.Context) (*course.Course, bool) {
	raw, ok, err := w.kv.Get(ctx, ActiveKey)
	if err != nil {
		w.logger.Warn("read active course", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c, err := course.Normalize(raw)
	if err != nil {
		w.logger.Warn("stored course is not a course document", zap.Error(err))
		return nil, false
	}
	return c, true
}

// Replace makes c the active course.
func (w *Workspace) Replace(ctx context.Context, c *course.Course) error {
	if c == nil {
		return errors.New("replace with nil course")
	}
	c.EnsureID(w.now())
	data, err := codec.Export(c)
	if err != nil {
		return err
	}
	if err := w.kv.Set(ctx, ActiveKey, data); err != nil {
		return fmt.Errorf("store active course: %w", err)
	}
	return nil
}

// Import decodes data and makes it the active course. On
// *codec.ImportError nothing changes. When only the store write fails the
// decoded course is still returned, with an error wrapping ErrNotSaved.
func (w *Workspace) Import(ctx context.Context, data []byte) (*course.Course, error) {
	c, err := codec.Import(data)
	if err != nil {
		return nil, err
	}
	if err := w.Replace(ctx, c); err != nil {
		return c, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	w.logger.Info("imported course",
		zap.String("course_id", c.ID),
		zap.Int("modules", len(c.Modules)),
		zap.Int("lessons", c.LessonCount()))
	return c, nil
}

// ToggleChecklist flips checklist item idx of a lesson in c and stores c
// as the active course. Checklist state is part of the document and
// travels with exports. The flip stands even when storing fails; the
// error then wraps ErrNotSaved.
func (w *Workspace) ToggleChecklist(ctx context.Context, c *course.Course, moduleID, lessonID string, idx int) error {
	if c == nil {
		return ErrNoActiveCourse
	}
	l := c.ModuleByID(moduleID).LessonByID(lessonID)
	if l == nil {
		return fmt.Errorf("lesson %s/%s: %w", moduleID, lessonID, ErrNotFound)
	}
	if !l.ToggleChecklist(idx) {
		return fmt.Errorf("checklist item %d: %w", idx, ErrNotFound)
	}
	if err := w.Replace(ctx, c); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	return nil
}
