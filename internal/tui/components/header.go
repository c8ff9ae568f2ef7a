package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// Header renders the app header bar.
type Header struct {
	Project string // selected project id
	Backend string // API base URL
	Storage string // where the chain is saved
	Width   int
}

// Render returns the styled header string.
func (h Header) Render() string {
	width := h.Width
	if width <= 0 {
		width = 80
	}

	logo := lipgloss.NewStyle().
		Foreground(styles.AccentPrimary).
		Bold(true).
		Render(styles.CompactLogo)

	sep := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("  │  ")

	project := h.Project
	if project == "" {
		project = "none"
	}
	content := logo + sep +
		styles.Label.Render("Project: ") +
		lipgloss.NewStyle().Foreground(styles.AccentGold).Bold(true).Render(project)

	if h.Backend != "" {
		content += sep + styles.Label.Render("API: ") +
			lipgloss.NewStyle().Foreground(styles.TextSecondary).
				Render(styles.TruncateWithEllipsis(h.Backend, 40))
	}
	if h.Storage != "" && width >= 100 {
		content += sep + styles.Label.Render("Saved to: ") +
			lipgloss.NewStyle().Foreground(styles.TextSecondary).
				Render(styles.TruncateWithEllipsis(h.Storage, 40))
	}

	return lipgloss.NewStyle().
		Background(styles.BgDeep).
		Foreground(styles.TextPrimary).
		Width(width).
		PaddingLeft(1).
		PaddingRight(1).
		Render(content)
}
