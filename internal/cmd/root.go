package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/config"
	"github.com/Dallionking/levelchain/internal/logging"
	"github.com/Dallionking/levelchain/internal/snapshot"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

var (
	cfgFile        string
	verbose        bool
	noColor        bool
	apiURL         string
	storageBackend string
)

// v is the command tree's viper instance. Flags are bound to it in init.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "levelchain",
	Short: "Build a chain of dependent data objects and convert it to dbt",
	Long: `levelchain -- define up to four dependent data objects, one level at a time

Each level's default query reads from the level before it. When every level
is complete the chain is saved to the backend and converted to dbt models,
shown next to the original SQL.

Running levelchain with no subcommand opens the interactive wizard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			styles.DisableColor()
		}
	},
	RunE: runWizard,
}

// Execute runs the command tree and prints any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Red("Error:")+" "+err.Error())
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./levelchain.json, then $XDG_CONFIG_HOME/levelchain/config.json)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&noColor, "no-color", false, "disable color output")
	pf.StringVar(&apiURL, "api-url", "", "backend base URL (overrides api.baseURL)")
	pf.StringVar(&storageBackend, "storage", "", "snapshot storage: file or sqlite (overrides storage.backend)")

	_ = v.BindPFlag("api.baseURL", pf.Lookup("api-url"))
	_ = v.BindPFlag("storage.backend", pf.Lookup("storage"))
}

// app bundles what every command needs once config is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	api     *backend.Client
	store   snapshot.Store
	adapter *snapshot.Adapter
	closers []io.Closer
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return cfg, nil
}

// newApp loads config, builds the logger and opens the snapshot store. The
// wizard logs to the configured file so the alternate screen stays clean;
// everything else logs to stderr, at warn unless --verbose.
func newApp(logToFile bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if logToFile {
		logger, closer, err := logging.OpenFile(level, cfg.Log.Format, cfg.Log.File)
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	} else {
		if !verbose {
			level = "warn"
		}
		a.logger = logging.New(level, cfg.Log.Format, os.Stderr)
	}

	store, err := snapshot.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	a.store = store
	a.closers = append(a.closers, store)
	a.adapter = snapshot.NewAdapter(store, cfg.Defaults.ProjectID, a.logger)
	a.api = backend.New(cfg.API.BaseURL, cfg.API.Timeout, a.logger)

	a.logger.Debug("levelchain starting",
		"config", cfg.Source,
		"api", cfg.API.BaseURL,
		"storage", cfg.Storage.Backend,
		"location", store.Location(),
	)
	return a, nil
}

// Close releases the store and the log file, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
