// Package progress tracks per-lesson quiz scores and completion flags.
//
// Records are keyed by course and lesson id and live next to the course
// document in the persistence port, never inside it. Tracking is best
// effort: a failing store degrades the tracker to memory for the rest of
// the session instead of surfacing an error.
package progress

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/store"
)

// Facets of a progress record.
const (
	FacetQuiz = "quiz"
	FacetDone = "done"
)

// Key identifies a lesson within a course.
type Key struct {
	CourseID string
	LessonID string
}

// StorageKey returns the port key for facet.
func (k Key) StorageKey(facet string) string {
	return fmt.Sprintf("course:%s:%s:%s", k.CourseID, k.LessonID, facet)
}

// PersistenceWarning describes a store failure the tracker swallowed.
type PersistenceWarning struct {
	Op  string // "read" or "write"
	Key string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("progress %s %s: %v", w.Op, w.Key, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

// Tracker reads and writes progress records. Safe for concurrent use.
type Tracker struct {
	kv     store.KV
	logger *zap.Logger

	mu sync.Mutex
	// overlay holds every value written in this session so reads stay
	// consistent even when the store rejected the write.
	overlay map[string]string
}

// NewTracker creates a tracker over kv. A nil logger discards warnings.
func NewTracker(kv store.KV, logger *zap.Logger) *Tracker {
	return &Tracker{
		kv:      kv,
		logger:  logging.OrNop(logger),
		overlay: make(map[string]string),
	}
}

// QuizScore returns the smoothed quiz score in [0,100], 0 when unrecorded.
func (t *Tracker) QuizScore(ctx context.Context, k Key) int {
	raw, ok := t.read(ctx, k.StorageKey(FacetQuiz))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return clamp(n)
}

// RecordQuizOutcome folds one answer into the score and returns the new
// value: round((old + (correct ? 100 : 0)) / 2), clamped to [0,100].
func (t *Tracker) RecordQuizOutcome(ctx context.Context, k Key, correct bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	score := NextScore(t.quizScoreLocked(ctx, k), correct)
	t.writeLocked(ctx, k.StorageKey(FacetQuiz), strconv.Itoa(score))
	return score
}

// Done reports the completion flag, false when unrecorded.
func (t *Tracker) Done(ctx context.Context, k Key) bool {
	raw, ok := t.read(ctx, k.StorageKey(FacetDone))
	return ok && raw == "true"
}

// ToggleDone flips the completion flag and returns the new value.
func (t *Tracker) ToggleDone(ctx context.Context, k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := k.StorageKey(FacetDone)
	raw, ok := t.readLocked(ctx, key)
	done := !(ok && raw == "true")
	t.writeLocked(ctx, key, strconv.FormatBool(done))
	return done
}

// NextScore applies one quiz outcome to score.
func NextScore(score int, correct bool) int {
	add := 0
	if correct {
		add = 100
	}
	// Integer round-half-up of (score+add)/2.
	return clamp((clamp(score) + add + 1) / 2)
}

func (t *Tracker) quizScoreLocked(ctx context.Context, k Key) int {
	raw, ok := t.readLocked(ctx, k.StorageKey(FacetQuiz))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (t *Tracker) read(ctx context.Context, key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readLocked(ctx, key)
}

func (t *Tracker) readLocked(ctx context.Context, key string) (string, bool) {
	if v, ok := t.overlay[key]; ok {
		return v, true
	}
	raw, ok, err := t.kv.Get(ctx, key)
	if err != nil {
		t.warn(&PersistenceWarning{Op: "read", Key: key, Err: err})
		return "", false
	}
	if !ok {
		return "", false
	}
	return string(raw), true
}

func (t *Tracker) writeLocked(ctx context.Context, key, value string) {
	t.overlay[key] = value
	if err := t.kv.Set(ctx, key, []byte(value)); err != nil {
		t.warn(&PersistenceWarning{Op: "write", Key: key, Err: err})
	}
}

func (t *Tracker) warn(w *PersistenceWarning) {
	t.logger.Warn("progress degraded to memory", zap.String("op", w.Op), zap.String("key", w.Key), zap.Error(w.Err))
}

func clamp(n int) int {
	return max(0, min(100, n))
}
