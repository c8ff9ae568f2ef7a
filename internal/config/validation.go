package config

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/Dallionking/levelchain/internal/snapshot"
)

// ValidationError describes a single config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for a single validation error.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	backends   = []string{snapshot.BackendFile, snapshot.BackendSQLite}
)

// Validate checks the Config for completeness and consistency. It returns a
// slice of all discovered issues rather than stopping at the first one.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	// --- API ---
	if cfg.API.BaseURL == "" {
		errs = append(errs, ValidationError{Field: "api.baseURL", Message: "required field is empty"})
	} else if u, err := url.Parse(cfg.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.baseURL",
			Message: fmt.Sprintf("must be an http(s) URL, got %q", cfg.API.BaseURL),
		})
	}
	if cfg.API.Timeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout",
			Message: fmt.Sprintf("must be > 0, got %s", cfg.API.Timeout),
		})
	}

	// --- Storage ---
	if !slices.Contains(backends, cfg.Storage.Backend) {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", backends, cfg.Storage.Backend),
		})
	}
	if cfg.Storage.Dir == "" {
		errs = append(errs, ValidationError{Field: "storage.dir", Message: "required field is empty"})
	}

	// --- Defaults ---
	if cfg.Defaults.ProjectID == "" {
		errs = append(errs, ValidationError{Field: "defaults.projectId", Message: "required field is empty"})
	}

	// --- Log ---
	if !slices.Contains(logLevels, cfg.Log.Level) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be one of %v, got %q", logLevels, cfg.Log.Level),
		})
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("must be one of %v, got %q", logFormats, cfg.Log.Format),
		})
	}

	return errs
}
