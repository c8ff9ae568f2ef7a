package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// KeyHint describes a single keybinding hint for display in the footer.
type KeyHint struct {
	Key  string // "ctrl+s", "tab"
	Desc string // "save", "next field"
}

// Footer renders context-aware keybinding hints.
type Footer struct {
	Hints []KeyHint
	Width int
}

// Render returns the styled footer string.
func (f Footer) Render() string {
	width := f.Width
	if width <= 0 {
		width = 80
	}

	keyStyle := lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	parts := make([]string, 0, len(f.Hints))
	for _, h := range f.Hints {
		parts = append(parts, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Desc))
	}

	content := strings.Join(parts, descStyle.Render(" • "))

	return lipgloss.NewStyle().
		Background(styles.BgDeep).
		Foreground(styles.TextMuted).
		Width(width).
		PaddingLeft(1).
		PaddingRight(1).
		Render(content)
}

// EditorFooter is the preset for the level editor. Save, submit, add and
// delete hints only appear when the action is available; without the
// dataset catalog a retry hint replaces save and submit.
func EditorFooter(width int, canSave, canAdd, canDelete bool) Footer {
	hints := []KeyHint{{Key: "tab", Desc: "next field"}}
	if canSave {
		hints = append(hints, KeyHint{Key: "ctrl+s", Desc: "save"})
	} else {
		hints = append(hints, KeyHint{Key: "ctrl+r", Desc: "retry datasets"})
	}
	if canAdd {
		hints = append(hints, KeyHint{Key: "ctrl+a", Desc: "add level"})
	}
	if canDelete {
		hints = append(hints, KeyHint{Key: "ctrl+d", Desc: "delete"})
	}
	hints = append(hints,
		KeyHint{Key: "ctrl+n/p", Desc: "level"},
		KeyHint{Key: "ctrl+o", Desc: "project"},
	)
	if canSave {
		hints = append(hints, KeyHint{Key: "ctrl+g", Desc: "submit"})
	}
	hints = append(hints, KeyHint{Key: "esc", Desc: "quit"})
	return Footer{Hints: hints, Width: width}
}

// DialogFooter is the preset while a confirmation dialog is open.
func DialogFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "y", Desc: "confirm"},
			{Key: "n/esc", Desc: "cancel"},
			{Key: "←→", Desc: "choose"},
			{Key: "enter", Desc: "select"},
		},
		Width: width,
	}
}

// ComparisonFooter is the preset for the dbt comparison viewer.
func ComparisonFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "↑↓", Desc: "scroll"},
			{Key: "esc", Desc: "back"},
			{Key: "m", Desc: "make changes"},
			{Key: "q", Desc: "quit"},
		},
		Width: width,
	}
}
