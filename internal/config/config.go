// Package config loads levelchain settings from a JSON file, LEVELCHAIN_*
// environment variables and command-line flags via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/snapshot"
)

// EnvPrefix prefixes every environment override (LEVELCHAIN_API_BASEURL, ...).
const EnvPrefix = "LEVELCHAIN"

// Config is the full levelchain configuration.
type Config struct {
	API      APIConfig     `json:"api" mapstructure:"api"`
	Storage  StorageConfig `json:"storage" mapstructure:"storage"`
	Defaults Defaults      `json:"defaults" mapstructure:"defaults"`
	Log      LogConfig     `json:"log" mapstructure:"log"`

	// Source is the config file that was read, empty when none was found.
	Source string `json:"-" mapstructure:"-"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string        `json:"baseURL" mapstructure:"baseURL"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// StorageConfig selects where the chain snapshot is kept.
type StorageConfig struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Dir     string `json:"dir" mapstructure:"dir"`
}

// Defaults holds the values a fresh chain starts with.
type Defaults struct {
	ProjectID string `json:"projectId" mapstructure:"projectId"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file" mapstructure:"file"`
}

// SetDefaults registers every key so environment overrides are picked up
// by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.baseURL", backend.DefaultBaseURL)
	v.SetDefault("api.timeout", backend.DefaultTimeout)
	v.SetDefault("storage.backend", snapshot.BackendFile)
	v.SetDefault("storage.dir", "")
	v.SetDefault("defaults.projectId", chain.DefaultProjectID)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// singleton holds the loaded config.
var (
	globalCfg *Config
	mu        sync.RWMutex
)

// Load reads configuration into v. cfgFile, when set, must exist; otherwise
// the first of SearchPaths that exists is used, and no file at all is fine.
// Empty storage.dir and log.file are resolved under the XDG state dir.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = findConfigFile(SearchPaths())
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Source = cfgFile

	if cfg.Storage.Dir == "" {
		dir, err := StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolving state dir: %w", err)
		}
		cfg.Storage.Dir = dir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Storage.Dir, "levelchain.log")
	}

	mu.Lock()
	globalCfg = &cfg
	mu.Unlock()

	return &cfg, nil
}

// Get returns the cached global config. It panics if Load has not been called.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()

	if globalCfg == nil {
		panic("config.Get() called before config.Load()")
	}
	return globalCfg
}

func findConfigFile(candidates []string) string {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
