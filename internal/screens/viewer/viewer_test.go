package viewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/router"
	"github.com/abhisek/coursegen/internal/screen"
	"github.com/abhisek/coursegen/internal/selection"
	"github.com/abhisek/coursegen/internal/store"
	"github.com/abhisek/coursegen/internal/workspace"
)

func testCourse() *course.Course {
	return &course.Course{
		ID:    "pottery-1",
		Topic: "Pottery",
		Modules: []course.Module{
			{
				ID:    "m1",
				Title: "Clay",
				Lessons: []course.Lesson{
					{
						ID:        "l1",
						Title:     "Wedging",
						Explainer: "Knead the clay.",
						Quiz: []course.QuizItem{
							{Question: "Why wedge?", Options: []string{"Air", "Color", "Taste", "Smell"}, AnswerIndex: 0},
							{Question: "Broken key", Options: []string{"a", "b"}, AnswerIndex: 7},
						},
						Flashcards: []course.Flashcard{
							{Front: "Wedging", Back: "Removing air"},
							{Front: "Slip"},
						},
						Checklist: []course.ChecklistItem{{Task: "Wedge 1kg"}, {Task: "Cut a cross-section"}},
						Resources: []course.Resource{{Label: "Guide", URL: "https://example.com"}},
					},
					{ID: "l2", Title: "Centering"},
				},
			},
			{
				ID:      "m2",
				Title:   "Firing",
				Lessons: []course.Lesson{{ID: "l1", Title: "Bisque"}},
			},
		},
		Metadata: course.GenerationMetadata{
			Provider:  course.ProviderExternal,
			Engine:    "openai",
			LatencyMs: 1500,
			Usage:     &course.Usage{TotalTokens: 2300},
		},
	}
}

type fixture struct {
	kv         *store.Memory
	ws         *workspace.Workspace
	tracker    *progress.Tracker
	selections *selection.Store
	deps       Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemory()
	f := &fixture{
		kv:         kv,
		ws:         workspace.New(kv, nil),
		tracker:    progress.NewTracker(kv, nil),
		selections: selection.NewStore(kv, nil),
	}
	f.deps = Deps{
		Workspace:  f.ws,
		Tracker:    f.tracker,
		Selections: f.selections,
		ExportDir:  t.TempDir(),
	}
	return f
}

func (f *fixture) open(t *testing.T, c *course.Course, warning string) *ViewerScreen {
	t.Helper()
	require.NoError(t, f.ws.Replace(t.Context(), c))
	return New(f.deps, c, warning)
}

func press(s *ViewerScreen, keys ...tea.KeyPressMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = s.Update(k)
	}
	return cmd
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestOpensFirstLessonByDefault(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")

	assert.Equal(t, "m1", s.module.ID)
	assert.Equal(t, "l1", s.lesson.ID)
	assert.Equal(t, "Pottery", s.Title())
	assert.Contains(t, s.View(120, 40), "Wedging")
}

func TestRestoresStoredSelection(t *testing.T) {
	f := newFixture(t)
	f.selections.Pick(t.Context(), "pottery-1", "m2", "l1")

	s := f.open(t, testCourse(), "")

	assert.Equal(t, "m2", s.module.ID)
	assert.Equal(t, "Bisque", s.lesson.Title)
	item, ok := s.outline.Current()
	require.True(t, ok)
	assert.Equal(t, "m2/l1", item.Key)
}

func TestLessonNavigationPersistsSelection(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")

	press(s, key(']'))
	assert.Equal(t, "Centering", s.lesson.Title)

	// Crosses the module heading.
	press(s, key(']'))
	assert.Equal(t, "m2", s.module.ID)
	assert.Equal(t, "Bisque", s.lesson.Title)

	// Stays on the last lesson.
	press(s, key(']'))
	assert.Equal(t, "Bisque", s.lesson.Title)

	sel := f.selections.Get(t.Context(), "pottery-1")
	assert.Equal(t, selection.Selection{ModuleID: "m2", LessonID: "l1"}, sel)

	press(s, key('['), key('['))
	assert.Equal(t, "Wedging", s.lesson.Title)
}

func TestSectionsCycle(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")

	tests := []struct {
		msg  tea.KeyPressMsg
		want Section
	}{
		{tea.KeyPressMsg{Code: tea.KeyTab}, SectionQuiz},
		{tea.KeyPressMsg{Code: tea.KeyTab}, SectionFlashcards},
		{tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, SectionQuiz},
		{tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, SectionExplainer},
		{tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, SectionResources},
		{tea.KeyPressMsg{Code: tea.KeyTab}, SectionExplainer},
	}
	for _, tt := range tests {
		press(s, tt.msg)
		assert.Equal(t, tt.want, s.section, "after %s", tt.msg.String())
	}
}

func TestQuizRecordsOutcome(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	pk := progress.Key{CourseID: "pottery-1", LessonID: "l1"}

	press(s, tea.KeyPressMsg{Code: tea.KeyTab}, key('1'))
	assert.True(t, s.quiz.IsCorrect())
	assert.Equal(t, 50, f.tracker.QuizScore(t.Context(), pk))
	assert.Contains(t, s.View(120, 40), "Correct!")

	// A submitted item ignores further answers.
	press(s, key('2'))
	assert.Equal(t, 50, f.tracker.QuizScore(t.Context(), pk))

	// Out-of-range answer key never scores as correct.
	press(s, key('n'), key('1'))
	assert.Equal(t, 1, s.quizIdx)
	assert.False(t, s.quiz.IsCorrect())
	assert.Equal(t, 25, f.tracker.QuizScore(t.Context(), pk))
	assert.Contains(t, s.View(120, 40), "no valid answer key")

	press(s, key('n'))
	assert.Equal(t, 1, s.quizIdx)
	press(s, key('p'), key('p'))
	assert.Equal(t, 0, s.quizIdx)
	assert.False(t, s.quiz.Submitted)
}

func TestFlashcardsClampAndReveal(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	press(s, tea.KeyPressMsg{Code: tea.KeyTab}, tea.KeyPressMsg{Code: tea.KeyTab})
	require.Equal(t, SectionFlashcards, s.section)

	press(s, tea.KeyPressMsg{Code: tea.KeyLeft})
	assert.Equal(t, 0, s.cardIdx)

	press(s, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	assert.True(t, s.flipped)
	assert.Contains(t, s.View(120, 40), "Removing air")

	press(s, tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.cardIdx)
	assert.False(t, s.flipped)

	// No back: nothing to reveal.
	press(s, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	assert.False(t, s.flipped)

	press(s, tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.cardIdx)
}

func TestChecklistToggleIsStoredInCourse(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	press(s, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	require.Equal(t, SectionChecklist, s.section)

	press(s, key('2'))
	assert.True(t, s.lesson.Checklist[1].Done)

	active, ok := f.ws.Active(t.Context())
	require.True(t, ok)
	assert.True(t, active.Modules[0].Lessons[0].Checklist[1].Done)
	assert.False(t, active.Modules[0].Lessons[0].Checklist[0].Done)

	// Out of range is ignored.
	press(s, key('9'))
	assert.False(t, s.lesson.Checklist[0].Done)
}

func TestChecklistToggleKeepsUnsavedCourseOnScreen(t *testing.T) {
	f := newFixture(t)
	old := testCourse()
	old.ID = "pottery-old"
	old.Modules[0].Lessons[0].Explainer = "OLD"
	require.NoError(t, f.ws.Replace(t.Context(), old))

	// Shown without being stored, as after a failed save.
	shown := testCourse()
	shown.ID = "pottery-new"
	shown.Modules[0].Lessons[0].Explainer = "NEW"
	s := New(f.deps, shown, "")

	press(s, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	press(s, key('1'))

	assert.Equal(t, "pottery-new", s.Course().ID)
	assert.Equal(t, "NEW", s.lesson.Explainer)
	assert.True(t, s.lesson.Checklist[0].Done)

	active, ok := f.ws.Active(t.Context())
	require.True(t, ok)
	assert.Equal(t, "pottery-new", active.ID)
	assert.True(t, active.Modules[0].Lessons[0].Checklist[0].Done)
}

// readOnlyKV rejects every write.
type readOnlyKV struct{ *store.Memory }

func (readOnlyKV) Set(context.Context, string, []byte) error { return errors.New("read-only file system") }

func TestStoreFailuresStaySilent(t *testing.T) {
	f := newFixture(t)
	f.deps.Workspace = workspace.New(readOnlyKV{store.NewMemory()}, nil)
	s := New(f.deps, testCourse(), "")

	press(s, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	press(s, key('2'))
	assert.True(t, s.lesson.Checklist[1].Done)
	assert.Equal(t, "pottery-1", s.Course().ID)

	path := filepath.Join(t.TempDir(), "chess.json")
	doc := `{"id":"chess-1","topic":"Chess","modules":[{"id":"o","title":"Openings","lessons":[{"id":"e4","title":"King pawn"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	press(s, key('i'))
	s.pathInput.SetValue(path)
	cmd := press(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.Empty(t, s.blocking)
	assert.Equal(t, "chess-1", s.Course().ID)
	assert.Equal(t, "King pawn", s.lesson.Title)
}

func TestToggleDone(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	pk := progress.Key{CourseID: "pottery-1", LessonID: "l1"}

	press(s, key('d'))
	assert.True(t, f.tracker.Done(t.Context(), pk))
	assert.Contains(t, s.View(120, 40), "Completed")
	assert.Equal(t, "✓", s.outline.Items[s.outline.Selected].Marker)

	press(s, key('d'))
	assert.False(t, f.tracker.Done(t.Context(), pk))
	assert.Empty(t, s.outline.Items[s.outline.Selected].Marker)
}

func TestWarningClearedByFirstKey(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "Showing sample content instead.")
	assert.Contains(t, s.View(120, 40), "Showing sample content instead.")

	press(s, key('x'))
	assert.NotContains(t, s.View(120, 40), "Showing sample content instead.")
}

func TestExportWritesFile(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")

	cmd := press(s, key('e'))
	require.NotNil(t, cmd)
	msg := cmd()
	s.Update(msg)

	path := filepath.Join(f.deps.ExportDir, "pottery.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"topic": "Pottery"`)
	assert.Contains(t, s.View(120, 40), "Exported to "+path)
}

func TestImportInvalidFileBlocksUntilDismissed(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"modules": 3}`), 0o644))

	press(s, key('i'))
	require.True(t, s.importing)
	s.pathInput.SetValue(path)
	cmd := press(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.NotEmpty(t, s.blocking)
	assert.Contains(t, s.View(120, 40), "not a valid course")

	// The previous course stays active.
	active, ok := f.ws.Active(t.Context())
	require.True(t, ok)
	assert.Equal(t, "pottery-1", active.ID)

	press(s, key('d'))
	assert.Empty(t, s.blocking)
	assert.False(t, f.tracker.Done(t.Context(), progress.Key{CourseID: "pottery-1", LessonID: "l1"}))
}

func TestImportValidFileReplacesCourse(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	path := filepath.Join(t.TempDir(), "chess.json")
	doc := `{"id":"chess-1","topic":"Chess","modules":[{"id":"o","title":"Openings","lessons":[{"id":"e4","title":"King pawn"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	press(s, key('i'))
	s.pathInput.SetValue(path)
	cmd := press(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())

	assert.Empty(t, s.blocking)
	assert.Equal(t, "Chess", s.Course().Topic)
	assert.Equal(t, "King pawn", s.lesson.Title)
	active, ok := f.ws.Active(t.Context())
	require.True(t, ok)
	assert.Equal(t, "chess-1", active.ID)
}

func TestImportCancel(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")

	press(s, key('i'))
	press(s, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, s.importing)

	// Keys reach the viewer again.
	press(s, key(']'))
	assert.Equal(t, "Centering", s.lesson.Title)
}

type stubScreen struct{ topic string }

func (s *stubScreen) Init() tea.Cmd                            { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "" }
func (s *stubScreen) Title() string                           { return "stub" }

func TestNewCoursePushesPrompt(t *testing.T) {
	f := newFixture(t)
	f.deps.NewPrompt = func(topic string) screen.Screen { return &stubScreen{topic: topic} }
	s := f.open(t, testCourse(), "")

	cmd := press(s, key('g'))
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Pottery", push.Screen.(*stubScreen).topic)
}

func TestStatusFromMetadata(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, testCourse(), "")
	assert.Equal(t, "openai · 1.5s · 2300 tok", s.Status().String())

	c := testCourse()
	c.Metadata = course.GenerationMetadata{Provider: course.ProviderPlaceholder}
	s = f.open(t, c, "")
	assert.Equal(t, "placeholder", s.Status().String())
}

func TestEmptyCourseRenders(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, &course.Course{ID: "empty", Topic: "Nothing"}, "")

	assert.Nil(t, s.lesson)
	assert.Contains(t, s.View(120, 40), "no modules")
	for _, k := range []tea.KeyPressMsg{key(']'), key('d'), {Code: tea.KeyTab}, key('1'), {Code: tea.KeySpace, Text: " "}} {
		press(s, k)
	}
}
