package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/compare"
	"github.com/Dallionking/levelchain/internal/pipeline"
	"github.com/Dallionking/levelchain/internal/tui/styles"
	"github.com/Dallionking/levelchain/internal/wizard"
)

var (
	submitMarkdown bool
	submitWidth    int
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the saved chain and print the dbt comparison",
	Long: `Submit the saved level chain without opening the wizard.

The chain is first saved to the backend (POST /submit) and then converted
to dbt (POST /convert-to-dbt). When conversion fails after the save
succeeded the levels are stored but no models are printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		container := chain.NewContainer(a.adapter.Restore(), nil, a.logger)
		ctrl := wizard.New(container, pipeline.New(a.logger), a.logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.API.Timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		res, err := submitChain(ctx, ctrl, a.api)
		if err != nil {
			return err
		}

		md := compare.Markdown(compare.Rows(ctrl.State(), res))
		if submitMarkdown {
			fmt.Fprint(out, md)
			return nil
		}
		fmt.Fprintln(out, styles.Green("Submission Successful!"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, compare.Render(md, submitWidth, !noColor))
		return nil
	},
}

// submitChain runs both pipeline phases on the controller's chain.
func submitChain(ctx context.Context, ctrl *wizard.Controller, sub pipeline.Submitter) (pipeline.Result, error) {
	run, err := ctrl.BeginSubmit()
	if err != nil {
		return pipeline.Result{}, err
	}
	out := ctrl.Pipeline().Execute(ctx, sub, run)
	ctrl.FinishSubmit(out)
	if out.Err != nil {
		return pipeline.Result{}, fmt.Errorf("submission failed: %s", out.Message())
	}
	return ctrl.Pipeline().Result(), nil
}

func init() {
	submitCmd.Flags().BoolVar(&submitMarkdown, "markdown", false, "print the comparison as raw markdown")
	submitCmd.Flags().IntVar(&submitWidth, "width", 100, "wrap the rendered comparison at this width")
	rootCmd.AddCommand(submitCmd)
}
