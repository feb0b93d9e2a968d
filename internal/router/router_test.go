package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/screen"
)

type fakeScreen struct {
	title string
	inits int
	seen  []tea.Msg
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *fakeScreen) View(int, int) string { return "view:" + s.title }
func (s *fakeScreen) Title() string        { return s.title }

func named(title string) *fakeScreen { return &fakeScreen{title: title} }

func TestNavigation(t *testing.T) {
	tests := []struct {
		name  string
		steps []tea.Msg
		trail []string
	}{
		{
			name:  "push stacks",
			steps: []tea.Msg{PushScreenMsg{Screen: named("New Course")}},
			trail: []string{"Chess", "New Course"},
		},
		{
			name:  "pop returns to viewer",
			steps: []tea.Msg{PushScreenMsg{Screen: named("New Course")}, PopScreenMsg{}},
			trail: []string{"Chess"},
		},
		{
			name:  "pop at root is ignored",
			steps: []tea.Msg{PopScreenMsg{}, PopScreenMsg{}},
			trail: []string{"Chess"},
		},
		{
			name:  "replace keeps depth",
			steps: []tea.Msg{PushScreenMsg{Screen: named("New Course")}, ReplaceScreenMsg{Screen: named("Import")}},
			trail: []string{"Chess", "Import"},
		},
		{
			name: "reset drops the stack",
			steps: []tea.Msg{
				PushScreenMsg{Screen: named("New Course")},
				PushScreenMsg{Screen: named("New Course")},
				ResetScreenMsg{Screen: named("Pottery")},
			},
			trail: []string{"Pottery"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(named("Chess"))
			for _, msg := range tt.steps {
				r.Update(msg)
			}
			assert.Equal(t, tt.trail, r.Trail())
			assert.Equal(t, len(tt.trail), r.Depth())
			assert.Equal(t, tt.trail[len(tt.trail)-1], r.Active().Title())
		})
	}
}

func TestInitRunsOnEntry(t *testing.T) {
	r := New(named("Chess"))

	pushed := named("New Course")
	r.Update(PushScreenMsg{Screen: pushed})
	assert.Equal(t, 1, pushed.inits)

	replaced := named("Import")
	r.Replace(replaced)
	assert.Equal(t, 1, replaced.inits)

	reset := named("Pottery")
	r.Reset(reset)
	assert.Equal(t, 1, reset.inits)
}

func TestPopReportsRoot(t *testing.T) {
	r := New(named("Chess"))
	assert.False(t, r.Pop())

	r.Push(named("New Course"))
	assert.True(t, r.Pop())
	assert.Equal(t, "Chess", r.Active().Title())
}

func TestUpdateRoutesToActive(t *testing.T) {
	root := named("Chess")
	top := named("New Course")
	r := New(root)
	r.Push(top)

	r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Empty(t, root.seen)
	require.Len(t, top.seen, 1)
	assert.Equal(t, "view:New Course", r.View(80, 24))
}

func TestCommands(t *testing.T) {
	s := named("New Course")

	push, ok := PushCmd(s)().(PushScreenMsg)
	require.True(t, ok)
	assert.Same(t, s, push.Screen)

	_, ok = PopCmd().(PopScreenMsg)
	assert.True(t, ok)

	replace, ok := ReplaceCmd(s)().(ReplaceScreenMsg)
	require.True(t, ok)
	assert.Same(t, s, replace.Screen)

	reset, ok := ResetCmd(s)().(ResetScreenMsg)
	require.True(t, ok)
	assert.Same(t, s, reset.Screen)
}
