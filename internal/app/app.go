// Package app wires the terminal viewer: the root Bubble Tea model, the
// screen router and the prompt and viewer screens.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/logging"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/router"
	"github.com/abhisek/coursegen/internal/screen"
	"github.com/abhisek/coursegen/internal/screens/prompt"
	"github.com/abhisek/coursegen/internal/screens/viewer"
	"github.com/abhisek/coursegen/internal/selection"
	"github.com/abhisek/coursegen/internal/ui/layout"
	"github.com/abhisek/coursegen/internal/workspace"
)

// Deps are the services the viewer runs on.
type Deps struct {
	Generator  prompt.Generator
	Workspace  *workspace.Workspace
	Tracker    *progress.Tracker
	Selections *selection.Store
	Logger     *zap.Logger
	ExportDir  string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel starts on the active course, or on the prompt when there is none.
func newAppModel(ctx context.Context, deps Deps) AppModel {
	deps.Logger = logging.OrNop(deps.Logger)

	var newPrompt func(topic string) screen.Screen
	newViewer := func(c *course.Course, warning string) screen.Screen {
		return viewer.New(viewer.Deps{
			Workspace:  deps.Workspace,
			Tracker:    deps.Tracker,
			Selections: deps.Selections,
			Logger:     deps.Logger,
			ExportDir:  deps.ExportDir,
			NewPrompt:  newPrompt,
		}, c, warning)
	}
	newPrompt = func(topic string) screen.Screen {
		return prompt.New(deps.Generator, deps.Workspace, newViewer, deps.Logger, topic)
	}

	var first screen.Screen
	if c, ok := deps.Workspace.Active(ctx); ok {
		first = newViewer(c, "")
	} else {
		first = newPrompt("")
	}
	return AppModel{router: router.New(first)}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 && !m.busy() {
				return m, router.PopCmd
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) busy() bool {
	b, ok := m.router.Active().(screen.BusyProvider)
	return ok && b.Busy()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := strings.Join(m.router.Trail(), " › ")
	if lipgloss.Width(title) > m.width/2 && active != nil {
		title = active.Title()
	}
	var status layout.Status
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	}
	if m.router.Depth() > 1 {
		footerHints = append(footerHints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(newAppModel(ctx, deps), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
