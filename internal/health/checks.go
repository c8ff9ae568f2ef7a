package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dallionking/levelchain/internal/config"
	"github.com/Dallionking/levelchain/internal/logging"
	"github.com/Dallionking/levelchain/internal/snapshot"
)

// Catalog is the part of the backend the checks exercise.
type Catalog interface {
	ProjectIDs(ctx context.Context) ([]string, error)
	Datasets(ctx context.Context) ([]string, error)
}

// NewChecker registers the levelchain checks for cfg. api may be nil, in
// which case the backend checks are skipped.
func NewChecker(cfg *config.Config, api Catalog) *Checker {
	c := &Checker{}

	c.add("config-file", CategoryConfig, func(context.Context) CheckResult {
		if cfg.Source == "" {
			return CheckResult{Status: StatusPass, Message: "no config file, using defaults"}
		}
		return CheckResult{Status: StatusPass, Message: cfg.Source}
	})
	c.add("config-valid", CategoryConfig, func(context.Context) CheckResult {
		errs := config.Validate(cfg)
		if len(errs) == 0 {
			return CheckResult{Status: StatusPass, Message: "ok"}
		}
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return CheckResult{Status: StatusFail, Message: strings.Join(msgs, "; ")}
	})

	c.add("state-dir", CategoryStorage, func(context.Context) CheckResult {
		return checkWritable(cfg.Storage.Dir)
	})
	c.add("snapshot", CategoryStorage, func(context.Context) CheckResult {
		return checkSnapshot(cfg)
	})

	if api != nil {
		c.add("api-projects", CategoryBackend, func(ctx context.Context) CheckResult {
			ids, err := api.ProjectIDs(ctx)
			if err != nil {
				return CheckResult{Status: StatusWarn, Message: err.Error()}
			}
			return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%d project(s)", len(ids))}
		})
		c.add("api-datasets", CategoryBackend, func(ctx context.Context) CheckResult {
			ds, err := api.Datasets(ctx)
			if err != nil {
				return CheckResult{Status: StatusFail, Message: err.Error()}
			}
			if len(ds) == 0 {
				return CheckResult{Status: StatusWarn, Message: "no datasets offered"}
			}
			return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%d dataset(s)", len(ds))}
		})
	}

	return c
}

func checkWritable(dir string) CheckResult {
	if dir == "" {
		return CheckResult{Status: StatusFail, Message: "storage.dir is empty"}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("not writable: %v", err)}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return CheckResult{Status: StatusPass, Message: filepath.Clean(dir)}
}

func checkSnapshot(cfg *config.Config) CheckResult {
	store, err := snapshot.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	defer store.Close()

	a := snapshot.NewAdapter(store, cfg.Defaults.ProjectID, logging.Discard())
	snap, err := a.Load()
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return CheckResult{Status: StatusPass, Message: "no saved chain yet"}
	case err != nil:
		return CheckResult{Status: StatusWarn, Message: "saved chain unreadable, will start fresh"}
	}
	s := snap.State(cfg.Defaults.ProjectID)
	msg := fmt.Sprintf("%s: %d level(s), %d complete", s.ProjectID, len(s.Visible), len(s.Completed))
	if at, err := a.SavedAt(); err == nil {
		msg += ", saved " + at.Local().Format(time.DateTime)
	}
	return CheckResult{Status: StatusPass, Message: msg}
}
