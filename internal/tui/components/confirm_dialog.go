package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// ConfirmDialog is a modal yes/no dialog implementing the Bubble Tea Model interface.
type ConfirmDialog struct {
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	Confirmed   bool
	Done        bool
	selected    int // 0 = confirm, 1 = cancel
}

// NewConfirmDialog creates a new confirmation dialog with Yes/No buttons.
func NewConfirmDialog(title, message string) ConfirmDialog {
	return ConfirmDialog{
		Title:       title,
		Message:     message,
		ConfirmText: "Yes",
		CancelText:  "No",
		selected:    1, // default to No for safety
	}
}

// WithButtons overrides the button labels.
func (d ConfirmDialog) WithButtons(confirm, cancel string) ConfirmDialog {
	d.ConfirmText = confirm
	d.CancelText = cancel
	return d
}

// Init satisfies tea.Model. No initial command needed.
func (d ConfirmDialog) Init() tea.Cmd {
	return nil
}

// Update handles keyboard input for confirmation.
func (d ConfirmDialog) Update(msg tea.Msg) (ConfirmDialog, tea.Cmd) {
	if d.Done {
		return d, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			d.Confirmed = true
			d.Done = true
		case "n", "N", "esc":
			d.Confirmed = false
			d.Done = true
		case "enter":
			d.Confirmed = d.selected == 0
			d.Done = true
		case "left", "h", "tab":
			d.selected = 0
		case "right", "l", "shift+tab":
			d.selected = 1
		}
	}
	return d, nil
}

// View returns the styled dialog.
func (d ConfirmDialog) View() string {
	title := lipgloss.NewStyle().
		Foreground(styles.AccentPrimary).
		Bold(true).
		Render(d.Title)

	message := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(42).
		Align(lipgloss.Center).
		Render(d.Message)

	selectedStyle := lipgloss.NewStyle().
		Background(styles.AccentPrimary).
		Foreground(styles.BgDeep).
		Bold(true).
		Padding(0, 1)

	unselectedStyle := lipgloss.NewStyle().
		Background(styles.BgSurface).
		Foreground(styles.TextSecondary).
		Padding(0, 1)

	yesStyle, noStyle := unselectedStyle, selectedStyle
	if d.selected == 0 {
		yesStyle, noStyle = selectedStyle, unselectedStyle
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		yesStyle.Render(d.ConfirmText), "  ", noStyle.Render(d.CancelText))

	hint := lipgloss.NewStyle().Foreground(styles.TextMuted).
		Render("y/n or ←→ + enter")

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		message,
		"",
		buttons,
		"",
		hint,
	)

	return lipgloss.NewStyle().
		Background(styles.BgPanel).
		Border(styles.RoundedBorder).
		BorderForeground(styles.AccentTertiary).
		Padding(1, 2).
		Width(48).
		Align(lipgloss.Center).
		Render(content)
}
