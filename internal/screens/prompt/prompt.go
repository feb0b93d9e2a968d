// Package prompt is the screen where a course is requested.
package prompt

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/generate"
	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/router"
	"github.com/abhisek/coursegen/internal/screen"
	"github.com/abhisek/coursegen/internal/ui/components"
	"github.com/abhisek/coursegen/internal/ui/layout"
	"github.com/abhisek/coursegen/internal/ui/theme"
)

// Generator produces a course outcome for a request.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Outcome, error)
}

// Saver stores a freshly generated course as the active one.
type Saver interface {
	Replace(ctx context.Context, c *course.Course) error
}

// NextFunc builds the screen that shows a generated course. warning is
// the advisory to display, empty when the course came from the endpoint.
type NextFunc func(c *course.Course, warning string) screen.Screen

const (
	fieldTopic = iota
	fieldLevel
	fieldAudience
	fieldGoal
	fieldCount
)

type generatedMsg struct {
	outcome *generate.Outcome
	err     error
}

// PromptScreen collects topic, level, audience and goal and runs the
// generation pipeline.
type PromptScreen struct {
	gen    Generator
	saver  Saver
	next   NextFunc
	logger *zap.Logger

	fields     [fieldCount]components.TextInput
	focus      int
	generating bool
	spin       spinner.Model
	errMsg     string
}

var _ screen.Screen = (*PromptScreen)(nil)
var _ screen.KeyHintProvider = (*PromptScreen)(nil)
var _ screen.BusyProvider = (*PromptScreen)(nil)

// New creates a PromptScreen. topic pre-fills the topic field.
func New(gen Generator, saver Saver, next NextFunc, logger *zap.Logger, topic string) *PromptScreen {
	s := &PromptScreen{
		gen:    gen,
		saver:  saver,
		next:   next,
		logger: logging.OrNop(logger),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	s.fields[fieldTopic] = components.NewTextInput("Topic", "e.g. Pottery, Rust ownership, Chess openings", generate.MaxTopicLen)
	s.fields[fieldLevel] = components.NewTextInput("Level", course.DefaultLevel, generate.MaxLevelLen)
	s.fields[fieldAudience] = components.NewTextInput("Audience", course.DefaultAudience, generate.MaxAudienceLen)
	s.fields[fieldGoal] = components.NewTextInput("Goal", "Learn <topic> through practice", generate.MaxGoalLen)
	s.fields[fieldTopic].SetValue(topic)
	return s
}

func (s *PromptScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *PromptScreen) Title() string {
	return "New Course"
}

func (s *PromptScreen) KeyHints() []layout.KeyHint {
	if s.generating {
		return nil
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Generate"},
	}
}

// Busy reports whether a request is in flight.
func (s *PromptScreen) Busy() bool {
	return s.generating
}

func (s *PromptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		return s.handleGenerated(msg)

	case spinner.TickMsg:
		if !s.generating {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		if s.generating {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "enter":
			return s, s.submit()
		}
	}

	if s.generating {
		return s, nil
	}
	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *PromptScreen) moveFocus(dir int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = (s.focus + dir + fieldCount) % fieldCount
	return s.fields[s.focus].Focus()
}

func (s *PromptScreen) request() generate.Request {
	return generate.Request{
		Topic:    s.fields[fieldTopic].Value(),
		Level:    s.fields[fieldLevel].Value(),
		Audience: s.fields[fieldAudience].Value(),
		Goal:     s.fields[fieldGoal].Value(),
	}
}

// submit validates locally and starts generation. A validation problem
// is shown inline and nothing is sent.
func (s *PromptScreen) submit() tea.Cmd {
	for i := range s.fields {
		s.fields[i].Err = ""
	}
	s.errMsg = ""

	req := s.request()
	if err := req.Validate(); err != nil {
		s.showValidation(err)
		return nil
	}

	s.generating = true
	gen := s.gen
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		out, err := gen.Generate(context.Background(), req)
		return generatedMsg{outcome: out, err: err}
	})
}

func (s *PromptScreen) showValidation(err error) {
	var ve *generate.ValidationError
	if !errors.As(err, &ve) {
		s.errMsg = err.Error()
		return
	}
	idx := fieldTopic
	switch ve.Field {
	case "level":
		idx = fieldLevel
	case "audience":
		idx = fieldAudience
	case "goal":
		idx = fieldGoal
	}
	s.fields[idx].Err = ve.Message
}

func (s *PromptScreen) handleGenerated(msg generatedMsg) (screen.Screen, tea.Cmd) {
	s.generating = false
	if msg.err != nil {
		s.showValidation(msg.err)
		return s, nil
	}

	c := msg.outcome.Course
	if err := s.saver.Replace(context.Background(), c); err != nil {
		// The course is still shown; it just will not survive a restart.
		s.logger.Warn("store generated course", zap.String("course_id", c.ID), zap.Error(err))
	}
	next := s.next(c, msg.outcome.Warning)
	return s, router.ResetCmd(next)
}

func (s *PromptScreen) View(width, height int) string {
	formWidth := min(width-4, 72)

	var b strings.Builder
	b.WriteString(theme.Title.Render("What do you want to learn?"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("Describe the course; blank fields use sensible defaults."))
	b.WriteString("\n\n")

	for i := range s.fields {
		s.fields[i].Model.SetWidth(formWidth - 2)
		b.WriteString(s.fields[i].View())
		b.WriteString("\n\n")
	}

	button := components.NewButton("Generate course", "enter").WithDisabled(s.generating)
	b.WriteString(button.View())

	if s.generating {
		b.WriteString("  ")
		b.WriteString(s.spin.View())
		b.WriteString(theme.Hint.Render(" Generating your course…"))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	form := lipgloss.NewStyle().Width(formWidth).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}
