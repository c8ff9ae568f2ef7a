package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/config"
	"github.com/Dallionking/levelchain/internal/health"
	"github.com/Dallionking/levelchain/internal/logging"
)

var (
	doctorCheck    string
	doctorCategory string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run configuration, storage and backend checks",
	Long: `Run diagnostic checks against the local setup and the backend.

Checks are grouped into categories:
  config   - config file, config validation
  storage  - state directory, saved snapshot
  backend  - project and dataset endpoints

Use --category to run only a specific group, or --check to run a single
named check.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// An invalid config is reported by the checks rather than refused.
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		api := backend.New(cfg.API.BaseURL, cfg.API.Timeout, logging.Discard())
		checker := health.NewChecker(cfg, api)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		var report *health.Report
		switch {
		case doctorCheck != "":
			report = checker.RunNamed(ctx, doctorCheck)
		case doctorCategory != "":
			report = checker.RunCategory(ctx, doctorCategory)
		default:
			report = checker.RunAll(ctx)
		}
		if report.Total == 0 {
			return errors.New("no checks matched")
		}

		fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
		return nil
	},
}

func init() {
	doctorCmd.Flags().StringVar(&doctorCheck, "check", "", "run a specific named check")
	doctorCmd.Flags().StringVar(&doctorCategory, "category", "", "run checks in a category: config, storage, or backend")
	rootCmd.AddCommand(doctorCmd)
}
