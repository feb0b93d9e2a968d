package app

import (
	"context"
		"testing"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/generate"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/router"
	"github.com/abhisek/coursegen/internal/screens/prompt"
	"github.com/abhisek/coursegen/internal/screens/viewer"
	"github.com/abhisek/coursegen/internal/selection"
	"github.com/abhisek/coursegen/internal/store"
	"github.com/abhisek/coursegen/internal/workspace"
)

type placeholderGenerator struct{}

func (placeholderGenerator) Generate(_ context.Context, req generate.Request) (*generate.Outcome, error) {
	c := course.Placeholder(req.Brief(), course.PlaceholderOptions{})
	return &generate.Outcome{Course: c, Warning: generate.PlaceholderWarning}, nil
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	kv := store.NewMemory()
	return Deps{
		Generator:  placeholderGenerator{},
		Workspace:  workspace.New(kv, nil),
		Tracker:    progress.NewTracker(kv, nil),
		Selections: selection.NewStore(kv, nil),
		ExportDir:  t.TempDir(),
	}
}

func TestStartsOnPromptWithoutActiveCourse(t *testing.T) {
	m := newAppModel(t.Context(), testDeps(t))
	_, ok := m.router.Active().(*prompt.PromptScreen)
	assert.True(t, ok)
}

func TestStartsOnViewerWithActiveCourse(t *testing.T) {
	deps := testDeps(t)
	c := course.Placeholder(course.Brief{Topic: "Pottery"}, course.PlaceholderOptions{})
	require.NoError(t, deps.Workspace.Replace(t.Context(), c))

	m := newAppModel(t.Context(), deps)
	v, ok := m.router.Active().(*viewer.ViewerScreen)
	require.True(t, ok)
	assert.Equal(t, c.ID, v.Course().ID)
}

func TestGenerateFromPromptLandsOnViewer(t *testing.T) {
	deps := testDeps(t)
	m := newAppModel(t.Context(), deps)
	m.Init()

	for _, r := range "Pottery" {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)

	// Drain the batch until the generation result arrives.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	var reset tea.Cmd
	for _, c := range batch {
		if c == nil {
			continue
		}
		msg := c()
		if _, isTick := msg.(spinner.TickMsg); isTick {
			continue
		}
		_, reset = m.Update(msg)
		if reset != nil {
			if r, ok := reset().(router.ResetScreenMsg); ok {
				m.Update(r)
				break
			}
		}
	}

	v, ok := m.router.Active().(*viewer.ViewerScreen)
	require.True(t, ok)
	assert.Equal(t, "Pottery", v.Course().Topic)
	assert.Equal(t, 1, m.router.Depth())

	active, ok := deps.Workspace.Active(t.Context())
	require.True(t, ok)
	assert.Equal(t, v.Course().ID, active.ID)
}

func TestEscPopsPromptPushedFromViewer(t *testing.T) {
	deps := testDeps(t)
	require.NoError(t, deps.Workspace.Replace(t.Context(), course.Placeholder(course.Brief{Topic: "Chess"}, course.PlaceholderOptions{})))
	m := newAppModel(t.Context(), deps)

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'g', Text: "g"})
	require.NotNil(t, cmd)
	m.Update(cmd())
	require.Equal(t, 2, m.router.Depth())

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 1, m.router.Depth())
}

func TestViewUsesAltScreen(t *testing.T) {
	deps := testDeps(t)
	c := course.Placeholder(course.Brief{Topic: "Chess"}, course.PlaceholderOptions{})
	require.NoError(t, deps.Workspace.Replace(t.Context(), c))
	m := newAppModel(t.Context(), deps)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	am := updated.(AppModel)
	assert.True(t, am.View().AltScreen)
	assert.Equal(t, 120, am.width)
	assert.Contains(t, am.router.View(120, 30), "Fundamentals of Chess")
}
