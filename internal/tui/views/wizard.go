package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dallionking/levelchain/internal/tui/models"
)

// RunWizard launches the interactive level editor. It blocks until the user
// quits; every committed change has already been saved by then.
func RunWizard(opts models.WizardOptions) error {
	p := tea.NewProgram(models.NewWizardModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	return nil
}
