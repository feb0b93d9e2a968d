// Package viewer is the screen for studying the active course: an outline
// of modules and lessons next to the selected lesson's sections.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/codec"
	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/router"
	"github.com/abhisek/coursegen/internal/screen"
	"github.com/abhisek/coursegen/internal/selection"
	"github.com/abhisek/coursegen/internal/ui/components"
	"github.com/abhisek/coursegen/internal/ui/layout"
	"github.com/abhisek/coursegen/internal/workspace"
)

// Section is one tab of the lesson pane.
type Section int

const (
	SectionExplainer Section = iota
	SectionQuiz
	SectionFlashcards
	SectionChecklist
	SectionResources
	sectionCount
)

var sectionNames = [sectionCount]string{"Explainer", "Quiz", "Flashcards", "Checklist", "Resources"}

func (s Section) String() string {
	if s < 0 || s >= sectionCount {
		return ""
	}
	return sectionNames[s]
}

// Deps are the collaborators the viewer works with.
type Deps struct {
	Workspace  *workspace.Workspace
	Tracker    *progress.Tracker
	Selections *selection.Store
	Logger     *zap.Logger

	// ExportDir is where exported course files are written.
	ExportDir string

	// NewPrompt builds the screen for requesting another course.
	NewPrompt func(topic string) screen.Screen
}

// ViewerScreen shows one course.
type ViewerScreen struct {
	deps   Deps
	logger *zap.Logger
	course *course.Course

	outline components.Menu
	module  *course.Module
	lesson  *course.Lesson
	section Section

	quizIdx int
	quiz    components.MultiChoice
	cardIdx int
	flipped bool

	// warning is the generation advisory, cleared by the first key.
	warning string
	// notice is a one-line result of the last action.
	notice string
	// blocking is an error that must be acknowledged before input resumes.
	blocking string

	importing bool
	pathInput components.TextInput
}

var _ screen.Screen = (*ViewerScreen)(nil)
var _ screen.KeyHintProvider = (*ViewerScreen)(nil)
var _ screen.StatusProvider = (*ViewerScreen)(nil)

// New creates a viewer for c. warning is shown until the first key press.
func New(deps Deps, c *course.Course, warning string) *ViewerScreen {
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	s := &ViewerScreen{
		deps:      deps,
		logger:    logging.OrNop(deps.Logger),
		warning:   warning,
		pathInput: components.NewTextInput("Import file", "path/to/course.json", 0),
	}
	s.load(c)
	return s
}

// load installs c as the displayed course and restores the stored selection.
func (s *ViewerScreen) load(c *course.Course) {
	s.course = c
	s.module, s.lesson = s.deps.Selections.Current(context.Background(), c)
	s.rebuildOutline()
	s.resetLessonState()
}

func (s *ViewerScreen) rebuildOutline() {
	var items []components.MenuItem
	for _, m := range s.course.Modules {
		items = append(items, components.MenuItem{Label: m.Title, Key: m.ID, Disabled: true})
		for _, l := range m.Lessons {
			item := components.MenuItem{Label: l.Title, Key: outlineKey(m.ID, l.ID)}
			if s.deps.Tracker.Done(context.Background(), s.progressKey(l.ID)) {
				item.Marker = "✓"
			}
			items = append(items, item)
		}
	}
	selected := s.outline.Selected
	s.outline = components.NewMenu(items)
	if s.module != nil && s.lesson != nil {
		s.outline.SelectKey(outlineKey(s.module.ID, s.lesson.ID))
	} else if selected < len(items) {
		s.outline.Selected = selected
	}
}

func outlineKey(moduleID, lessonID string) string {
	return moduleID + "/" + lessonID
}

func (s *ViewerScreen) progressKey(lessonID string) progress.Key {
	return progress.Key{CourseID: s.course.ID, LessonID: lessonID}
}

func (s *ViewerScreen) resetLessonState() {
	s.quizIdx = 0
	s.cardIdx = 0
	s.flipped = false
	s.resetQuiz()
}

func (s *ViewerScreen) resetQuiz() {
	if s.lesson == nil || s.quizIdx >= len(s.lesson.Quiz) {
		s.quiz = components.NewMultiChoice("", nil, -1)
		return
	}
	q := s.lesson.Quiz[s.quizIdx]
	s.quiz = components.NewMultiChoice(q.Question, q.Options, q.AnswerIndex)
}

// Course returns the displayed course.
func (s *ViewerScreen) Course() *course.Course {
	return s.course
}

func (s *ViewerScreen) Init() tea.Cmd {
	return nil
}

func (s *ViewerScreen) Title() string {
	if s.course == nil || s.course.Topic == "" {
		return "Course"
	}
	return s.course.Topic
}

func (s *ViewerScreen) Status() layout.Status {
	md := s.course.Metadata
	st := layout.Status{Provider: md.Provider, Engine: md.Engine, LatencyMs: md.LatencyMs}
	if md.Usage != nil {
		st.TotalTokens = md.Usage.TotalTokens
	}
	return st
}

func (s *ViewerScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.blocking != "":
		return []layout.KeyHint{{Key: "Any key", Description: "Dismiss"}}
	case s.importing:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Import"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "[ ]", Description: "Lesson"},
		{Key: "Tab", Description: "Section"},
	}
	switch s.section {
	case SectionQuiz:
		hints = append(hints, layout.KeyHint{Key: "1-9", Description: "Answer"}, layout.KeyHint{Key: "n/p", Description: "Question"})
	case SectionFlashcards:
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Card"}, layout.KeyHint{Key: "Space", Description: "Flip"})
	case SectionChecklist:
		hints = append(hints, layout.KeyHint{Key: "1-9", Description: "Toggle"})
	}
	return append(hints,
		layout.KeyHint{Key: "d", Description: "Done"},
		layout.KeyHint{Key: "e/i", Description: "Export/Import"},
		layout.KeyHint{Key: "g", Description: "New"},
	)
}

func (s *ViewerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case exportedMsg:
		if msg.Err != nil {
			s.notice = ""
			s.blocking = "Export failed: " + msg.Err.Error()
			return s, nil
		}
		s.notice = "Exported to " + msg.Path
		return s, nil

	case importedMsg:
		if msg.Err != nil && msg.Course == nil {
			s.notice = ""
			var ie *codec.ImportError
			if errors.As(msg.Err, &ie) {
				s.blocking = "Could not import: the file is not a valid course JSON."
			} else {
				s.blocking = "Could not import: " + msg.Err.Error()
			}
			return s, nil
		}
		if msg.Err != nil {
			s.logger.Warn("store imported course", zap.String("course_id", msg.Course.ID), zap.Error(msg.Err))
		}
		s.load(msg.Course)
		s.section = SectionExplainer
		s.notice = "Imported " + msg.Course.Topic
		return s, nil

	case tea.KeyMsg:
		s.warning = ""
		if s.blocking != "" {
			s.blocking = ""
			return s, nil
		}
		if s.importing {
			return s.updateImport(msg)
		}
		return s.handleKey(msg)
	}

	if s.importing {
		var cmd tea.Cmd
		s.pathInput, cmd = s.pathInput.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ViewerScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	s.notice = ""
	switch msg.String() {
	case "]", "pgdown":
		s.stepLesson(1)
		return s, nil
	case "[", "pgup":
		s.stepLesson(-1)
		return s, nil
	case "tab":
		s.section = (s.section + 1) % sectionCount
		return s, nil
	case "shift+tab":
		s.section = (s.section + sectionCount - 1) % sectionCount
		return s, nil
	case "d":
		s.toggleDone()
		return s, nil
	case "e":
		return s, s.export()
	case "i":
		s.importing = true
		s.pathInput.SetValue("")
		s.pathInput.Err = ""
		return s, s.pathInput.Focus()
	case "g":
		if s.deps.NewPrompt == nil {
			return s, nil
		}
		next := s.deps.NewPrompt(s.course.Topic)
		return s, router.PushCmd(next)
	}

	switch s.section {
	case SectionQuiz:
		s.updateQuiz(msg)
	case SectionFlashcards:
		s.updateFlashcards(msg)
	case SectionChecklist:
		s.updateChecklist(msg)
	}
	return s, nil
}

// stepLesson moves the outline cursor and persists the new selection.
func (s *ViewerScreen) stepLesson(dir int) {
	if !s.outline.Move(dir) {
		return
	}
	item, ok := s.outline.Current()
	if !ok {
		return
	}
	s.pick(item.Key)
}

func (s *ViewerScreen) pick(key string) {
	for i := range s.course.Modules {
		m := &s.course.Modules[i]
		for j := range m.Lessons {
			l := &m.Lessons[j]
			if outlineKey(m.ID, l.ID) != key {
				continue
			}
			s.module, s.lesson = m, l
			s.deps.Selections.Pick(context.Background(), s.course.ID, m.ID, l.ID)
			s.resetLessonState()
			return
		}
	}
}

func (s *ViewerScreen) toggleDone() {
	if s.lesson == nil {
		return
	}
	done := s.deps.Tracker.ToggleDone(context.Background(), s.progressKey(s.lesson.ID))
	marker := ""
	if done {
		marker = "✓"
	}
	if i := s.outline.Selected; i >= 0 && i < len(s.outline.Items) {
		s.outline.Items[i].Marker = marker
	}
}

func (s *ViewerScreen) updateQuiz(msg tea.KeyMsg) {
	if s.lesson == nil || len(s.lesson.Quiz) == 0 {
		return
	}
	switch msg.String() {
	case "n":
		if s.quizIdx < len(s.lesson.Quiz)-1 {
			s.quizIdx++
			s.resetQuiz()
		}
		return
	case "p":
		if s.quizIdx > 0 {
			s.quizIdx--
			s.resetQuiz()
		}
		return
	}

	wasSubmitted := s.quiz.Submitted
	s.quiz, _ = s.quiz.Update(msg)
	if !wasSubmitted && s.quiz.Submitted {
		item := s.lesson.Quiz[s.quizIdx]
		correct := item.IsCorrect(s.quiz.ChosenIndex)
		score := s.deps.Tracker.RecordQuizOutcome(context.Background(), s.progressKey(s.lesson.ID), correct)
		s.logger.Debug("quiz answered",
			zap.String("lesson_id", s.lesson.ID),
			zap.Bool("correct", correct),
			zap.Int("score", score))
	}
}

func (s *ViewerScreen) updateFlashcards(msg tea.KeyMsg) {
	if s.lesson == nil || len(s.lesson.Flashcards) == 0 {
		return
	}
	switch msg.String() {
	case "right", "l":
		if s.cardIdx < len(s.lesson.Flashcards)-1 {
			s.cardIdx++
			s.flipped = false
		}
	case "left", "h":
		if s.cardIdx > 0 {
			s.cardIdx--
			s.flipped = false
		}
	case "space", " ":
		if s.lesson.Flashcards[s.cardIdx].HasBack() {
			s.flipped = !s.flipped
		}
	}
}

func (s *ViewerScreen) updateChecklist(msg tea.KeyMsg) {
	if s.lesson == nil || s.module == nil {
		return
	}
	key := msg.String()
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return
	}
	idx := int(key[0] - '1')
	if idx >= len(s.lesson.Checklist) {
		return
	}

	// The displayed course is edited in place; a failed write only loses
	// the change across restarts.
	err := s.deps.Workspace.ToggleChecklist(context.Background(), s.course, s.module.ID, s.lesson.ID, idx)
	if err != nil {
		s.logger.Warn("toggle checklist",
			zap.String("course_id", s.course.ID),
			zap.String("lesson_id", s.lesson.ID),
			zap.Int("index", idx),
			zap.Error(err))
	}
}

func (s *ViewerScreen) updateImport(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.importing = false
		s.pathInput.Blur()
		return s, nil
	case "enter":
		path := s.pathInput.Value()
		if path == "" {
			s.pathInput.Err = "Enter a file path."
			return s, nil
		}
		s.importing = false
		s.pathInput.Blur()
		return s, s.importFile(path)
	}
	var cmd tea.Cmd
	s.pathInput, cmd = s.pathInput.Update(msg)
	return s, cmd
}

func (s *ViewerScreen) export() tea.Cmd {
	c := s.course
	dir := s.deps.ExportDir
	logger := s.logger
	return func() tea.Msg {
		data, err := codec.Export(c)
		if err != nil {
			return exportedMsg{Err: err}
		}
		path := filepath.Join(dir, codec.FileName(c))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{Err: fmt.Errorf("write %s: %w", path, err)}
		}
		logger.Info("exported course", zap.String("course_id", c.ID), zap.String("path", path))
		return exportedMsg{Path: path}
	}
}

func (s *ViewerScreen) importFile(path string) tea.Cmd {
	ws := s.deps.Workspace
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importedMsg{Err: fmt.Errorf("read %s: %w", path, err)}
		}
		c, err := ws.Import(context.Background(), data)
		return importedMsg{Course: c, Err: err}
	}
}
