package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursegen/internal/ui/theme"
)

// MenuItem represents a single item in a navigation menu. Disabled items
// are rendered as section headings and skipped by the cursor.
type MenuItem struct {
	Label    string
	Key      string // caller-defined identifier
	Action   func() tea.Cmd
	Disabled bool
	Marker   string // optional suffix, e.g. a done mark
}

// Menu is a vertical navigation menu.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a new menu with the given items.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Init returns nil (no initial command).
func (m Menu) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		m.Move(-1)
	case "down", "j":
		m.Move(1)
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}

	return m, nil
}

// Move shifts the cursor to the next enabled item in direction dir
// (negative for up). It stays put when there is none.
func (m *Menu) Move(dir int) bool {
	step := 1
	if dir < 0 {
		step = -1
	}
	for i := m.Selected + step; i >= 0 && i < len(m.Items); i += step {
		if !m.Items[i].Disabled {
			m.Selected = i
			return true
		}
	}
	return false
}

// SelectKey moves the cursor to the item with the given key.
func (m *Menu) SelectKey(key string) bool {
	for i, item := range m.Items {
		if item.Key == key && !item.Disabled {
			m.Selected = i
			return true
		}
	}
	return false
}

// Current returns the highlighted item, if any.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) || m.Items[m.Selected].Disabled {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

// View renders the menu, truncating labels to width.
func (m Menu) View(width int) string {
	var b strings.Builder
	for i, item := range m.Items {
		label := item.Label
		if item.Marker != "" {
			label += " " + item.Marker
		}
		switch {
		case item.Disabled:
			b.WriteString(theme.Label.Render(truncate(label, width)))
		case i == m.Selected:
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.Primary).
				Bold(true).
				Render(truncate("  ▸ "+label, width)))
		default:
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.Text).
				Render(truncate("    "+label, width)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}
