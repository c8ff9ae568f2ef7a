package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/pipeline"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// SubmissionOverlay is the modal shown while the pipeline is not idle.
type SubmissionOverlay struct {
	Status  pipeline.Status
	Spinner string // rendered spinner frame
	Message string // error message for StatusError
	Levels  int    // levels submitted, for the success line
}

// Render returns the styled overlay, or "" when the pipeline is idle.
func (o SubmissionOverlay) Render() string {
	var title, body, actions string

	switch o.Status {
	case pipeline.StatusLoading:
		title = styles.Title.Render("Submitting")
		body = o.Spinner + " " + styles.Subtitle.Render("Submitting your levels...")
	case pipeline.StatusSuccess:
		title = styles.SuccessText.Render("Submission Successful!")
		body = styles.Subtitle.Render(pluralLevels(o.Levels) + " saved and converted to dbt.")
		actions = button("enter", "Show dbt") + "  " + button("m", "Make Changes")
	case pipeline.StatusError:
		title = lipgloss.NewStyle().Foreground(styles.StatusError).Bold(true).Render("Submission Failed")
		msg := o.Message
		if msg == "" {
			msg = "Failed to submit data"
		}
		body = styles.ErrorText.Width(42).Align(lipgloss.Center).Render(msg)
		actions = button("r", "Submit Again") + "  " + button("esc", "Back to editing")
	default:
		return ""
	}

	parts := []string{title, "", body}
	if actions != "" {
		parts = append(parts, "", actions)
	}

	return lipgloss.NewStyle().
		Background(styles.BgPanel).
		Border(styles.RoundedBorder).
		BorderForeground(styles.AccentTertiary).
		Padding(1, 2).
		Width(52).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func button(key, label string) string {
	k := lipgloss.NewStyle().
		Background(styles.AccentPrimary).
		Foreground(styles.BgDeep).
		Bold(true).
		Padding(0, 1).
		Render(key)
	return k + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
}

func pluralLevels(n int) string {
	if n == 1 {
		return "1 level"
	}
	return fmt.Sprintf("%d levels", n)
}
