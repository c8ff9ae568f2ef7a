package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// LevelNav renders one tab per visible level.
// Completed levels get a filled green dot, the current level a bold accent
// dot, and incomplete levels an empty muted circle. Removed slots below the
// last visible level are not shown.
type LevelNav struct {
	State chain.State
}

// Render returns the styled level tabs.
func (n LevelNav) Render() string {
	if len(n.State.Visible) == 0 {
		return ""
	}

	parts := make([]string, 0, len(n.State.Visible))
	for _, i := range n.State.Visible {
		label := fmt.Sprintf("Level %d", i)
		if name := n.State.Levels[i].ObjectName; name != "" {
			label += " " + styles.TruncateWithEllipsis(name, 16)
		}

		color, dot := styles.TextMuted, "○"
		if n.State.IsCompleted(i) && n.State.IsComplete(i) {
			color, dot = styles.StatusOK, "●"
		}

		style := lipgloss.NewStyle().Foreground(color)
		if i == n.State.Current {
			style = lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true).Underline(true)
			if dot == "○" {
				dot = "◉"
			}
		}
		parts = append(parts, style.Render(dot+" "+label))
	}

	return strings.Join(parts, lipgloss.NewStyle().Foreground(styles.TextMuted).Render("  →  "))
}
