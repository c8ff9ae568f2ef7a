package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is an unfocused form field.
var Field = lipgloss.NewStyle().
	Border(ThinBorder).
	BorderForeground(BorderNormal).
	PaddingLeft(1).
	PaddingRight(1)

// FieldFocused is a focused form field.
var FieldFocused = Field.
	BorderForeground(BorderFocused)

// Badge returns an inline colored badge such as "● SAVED".
func Badge(text string, color lipgloss.Color) string {
	dot := lipgloss.NewStyle().Foreground(color).Render("●")
	label := lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(text)
	return dot + " " + label
}

// Title is bold AccentPrimary text for section headings.
var Title = lipgloss.NewStyle().
	Foreground(AccentPrimary).
	Bold(true)

// Subtitle is regular TextSecondary text for secondary headings.
var Subtitle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// Label is TextMuted text for field labels. Pass uppercase strings for the
// conventional LABEL look.
var Label = lipgloss.NewStyle().
	Foreground(TextMuted)

// Value is bold TextPrimary text for data values.
var Value = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Bold(true)

// Hint is italic secondary-accent text for derived-value hints.
var Hint = lipgloss.NewStyle().
	Foreground(AccentSecondary).
	Italic(true)

// ErrorText is for inline error messages.
var ErrorText = lipgloss.NewStyle().
	Foreground(StatusError)

// SuccessText is for inline success messages.
var SuccessText = lipgloss.NewStyle().
	Foreground(StatusOK).
	Bold(true)

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	line := strings.Repeat("─", width)
	return lipgloss.NewStyle().Foreground(BorderNormal).Render(line)
}
