package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/snapshot"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved level chain",
	Long: `Delete the saved level chain so the next wizard session starts from an
empty level 1. Asks for confirmation unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if _, err := a.adapter.Load(); errors.Is(err, snapshot.ErrNotFound) {
			fmt.Fprintln(out, styles.Dim("nothing saved"))
			return nil
		}
		if !resetYes {
			fmt.Fprintf(out, "Delete the saved chain in %s? [y/N] ", a.adapter.Location())
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(out, styles.Dim("cancelled"))
				return nil
			}
		}

		if err := a.adapter.Reset(); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}
		fmt.Fprintln(out, styles.Green("saved chain deleted"))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
