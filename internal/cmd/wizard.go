package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/pipeline"
	"github.com/Dallionking/levelchain/internal/tui/models"
	"github.com/Dallionking/levelchain/internal/tui/views"
	"github.com/Dallionking/levelchain/internal/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Edit the level chain interactively",
	Long: `Open the level editor.

The chain saved by the previous session is restored on start and every
committed change is saved immediately, so quitting never loses a saved level.
Project and dataset choices are fetched from the backend; press ctrl+r to
retry when it was unreachable.`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	container := chain.NewContainer(a.adapter.Restore(), a.adapter, a.logger)
	ctrl := wizard.New(container, pipeline.New(a.logger), a.logger)

	defer logMutations(a.logger, ctrl)

	return views.RunWizard(models.WizardOptions{
		Controller: ctrl,
		Catalog:    a.api,
		Submitter:  a.api,
		BackendURL: a.api.BaseURL(),
		Storage:    a.adapter.Location(),
		Timeout:    a.cfg.API.Timeout,
		Color:      !noColor,
	})
}

// logMutations records how many chain changes the session applied or refused.
func logMutations(logger *slog.Logger, ctrl *wizard.Controller) {
	var refused int
	muts := ctrl.Mutations()
	for _, m := range muts {
		if m.Err != nil {
			refused++
		}
	}
	logger.Info("wizard closed", "mutations", len(muts), "refused", refused, "project", ctrl.State().ProjectID)
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}
