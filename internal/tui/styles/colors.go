package styles

import "github.com/charmbracelet/lipgloss"

// Harbor -- dark slate palette with sea-green accents.

var (
	// Backgrounds (darkest to lightest)
	BgDeep    = lipgloss.Color("#0d1117")
	BgPanel   = lipgloss.Color("#131a22")
	BgSurface = lipgloss.Color("#1b2430")

	// Accents
	AccentPrimary   = lipgloss.Color("#2dd4bf") // Sea green -- focus, primary actions
	AccentSecondary = lipgloss.Color("#60a5fa") // Blue -- headings, derived hints
	AccentTertiary  = lipgloss.Color("#a78bfa") // Violet -- dialogs
	AccentGold      = lipgloss.Color("#fbbf24") // Gold -- project id

	// Status
	StatusOK    = lipgloss.Color("#22c55e")
	StatusWarn  = lipgloss.Color("#f59e0b")
	StatusError = lipgloss.Color("#ef4444")

	// Text
	TextPrimary   = lipgloss.Color("#e5e7eb")
	TextSecondary = lipgloss.Color("#9ca3af")
	TextMuted     = lipgloss.Color("#6b7280")

	// Borders
	BorderNormal  = lipgloss.Color("#334155")
	BorderFocused = lipgloss.Color("#2dd4bf")
)
