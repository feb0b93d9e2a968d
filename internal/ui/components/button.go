package components

import (
	"github.com/abhisek/coursegen/internal/ui/theme"
)

// Button renders a form action with the key that triggers it. Screens
// handle the key themselves; the button only reflects whether the action
// is currently available.
type Button struct {
	Label    string
	Key      string
	Disabled bool
}

// NewButton creates an enabled button bound to key.
func NewButton(label, key string) Button {
	return Button{Label: label, Key: key}
}

// WithDisabled returns a copy of b with its availability set.
func (b Button) WithDisabled(disabled bool) Button {
	b.Disabled = disabled
	return b
}

func (b Button) View() string {
	if b.Disabled {
		return theme.ButtonInactive.Render(b.Label)
	}
	out := theme.ButtonActive.Render("▸ " + b.Label)
	if b.Key != "" {
		out += " " + theme.Hint.Render(b.Key)
	}
	return out
}
