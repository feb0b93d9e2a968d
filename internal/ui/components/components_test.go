package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/coursegen/internal/ui/theme"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func outlineMenu() Menu {
	return NewMenu([]MenuItem{
		{Label: "Module 1", Disabled: true},
		{Label: "Lesson 1.1", Key: "l1"},
		{Label: "Lesson 1.2", Key: "l2"},
		{Label: "Module 2", Disabled: true},
		{Label: "Lesson 2.1", Key: "l3"},
	})
}

func TestMenu_SkipsHeadings(t *testing.T) {
	m := outlineMenu()
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(specialKey(tea.KeyDown))
	m, _ = m.Update(specialKey(tea.KeyDown))
	cur, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, "l3", cur.Key)

	// Already at the last enabled item.
	assert.False(t, m.Move(1))

	m, _ = m.Update(keyPress('k'))
	cur, _ = m.Current()
	assert.Equal(t, "l2", cur.Key)
}

func TestMenu_SelectKey(t *testing.T) {
	m := outlineMenu()
	assert.True(t, m.SelectKey("l3"))
	assert.Equal(t, 4, m.Selected)
	assert.False(t, m.SelectKey("missing"))
	assert.Equal(t, 4, m.Selected)
}

func TestMenu_EnterRunsAction(t *testing.T) {
	type picked struct{}
	m := NewMenu([]MenuItem{{Label: "Go", Action: func() tea.Cmd {
		return func() tea.Msg { return picked{} }
	}}})
	_, cmd := m.Update(specialKey(tea.KeyEnter))
	if assert.NotNil(t, cmd) {
		assert.IsType(t, picked{}, cmd())
	}
}

func TestMenu_ViewTruncates(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: strings.Repeat("x", 50)}})
	for _, line := range strings.Split(strings.TrimSpace(m.View(20)), "\n") {
		assert.Contains(t, line, "…")
	}
}

func TestMultiChoice(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		keys    []tea.KeyPressMsg
		want    bool
	}{
		{"enter on correct", 0, []tea.KeyPressMsg{specialKey(tea.KeyEnter)}, true},
		{"down then enter", 1, []tea.KeyPressMsg{keyPress('j'), specialKey(tea.KeyEnter)}, true},
		{"digit wrong", 2, []tea.KeyPressMsg{keyPress('1')}, false},
		{"digit right", 3, []tea.KeyPressMsg{keyPress('4')}, true},
		{"out of range answer", 7, []tea.KeyPressMsg{keyPress('2')}, false},
		{"negative answer", -1, []tea.KeyPressMsg{specialKey(tea.KeyEnter)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := NewMultiChoice("Q?", []string{"a", "b", "c", "d"}, tt.correct)
			for _, k := range tt.keys {
				mc, _ = mc.Update(k)
			}
			assert.True(t, mc.Submitted)
			assert.Equal(t, tt.want, mc.IsCorrect())
		})
	}
}

func TestMultiChoice_IgnoresInputAfterSubmit(t *testing.T) {
	mc := NewMultiChoice("Q?", []string{"a", "b"}, 1)
	mc, _ = mc.Update(keyPress('1'))
	mc, _ = mc.Update(keyPress('2'))
	assert.Equal(t, 0, mc.ChosenIndex)
}

func TestMultiChoice_NoOptions(t *testing.T) {
	mc := NewMultiChoice("Q?", nil, 0)
	mc, _ = mc.Update(specialKey(tea.KeyEnter))
	assert.False(t, mc.Submitted)
}

func TestProgressBarClamps(t *testing.T) {
	assert.Equal(t, 1.0, NewProgressBar("", 1.7, 20).Ratio)
	assert.Equal(t, 0.0, NewProgressBar("", -0.2, 20).Ratio)
	assert.Contains(t, NewProgressBar("Score", 0.5, 30).View(), "50%")
}

func TestScoreBarBands(t *testing.T) {
	tests := []struct {
		score int
		want  any
	}{
		{20, theme.Error},
		{50, theme.Accent},
		{79, theme.Accent},
		{80, theme.Success},
		{100, theme.Success},
	}
	for _, tt := range tests {
		bar := NewScoreBar("Score", tt.score, 30)
		assert.Equal(t, tt.want, bar.fill(), "score %d", tt.score)
	}
	assert.Equal(t, theme.Secondary, NewProgressBar("", 0.1, 30).fill())
}

func TestButton(t *testing.T) {
	b := NewButton("Generate course", "enter")
	assert.Contains(t, b.View(), "Generate course")
	assert.Contains(t, b.View(), "enter")

	off := b.WithDisabled(true)
	assert.Contains(t, off.View(), "Generate course")
	assert.NotContains(t, off.View(), "enter")
	assert.False(t, b.Disabled)
}
