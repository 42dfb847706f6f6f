// Package config loads and saves the sitebudget TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// Environment overrides. A .env file in the working directory is honoured.
const (
	EnvAPIBase   = "SITEBUDGET_API_BASE"
	EnvActuals   = "SITEBUDGET_ACTUALS"
	EnvConfigDir = "SITEBUDGET_CONFIG_DIR"
)

// Config holds all sitebudget configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Budget     BudgetConfig     `toml:"budget"`
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Watch      WatchConfig      `toml:"watch"`
}

// APIConfig points the client at the budget API.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// BudgetConfig selects the authoritative actual-cost convention.
type BudgetConfig struct {
	// ActualsSource is "item" (line item actual_cost) or "expenses" (linked expense totals).
	ActualsSource string `toml:"actuals_source"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultProject int64 `toml:"default_project,omitempty"`
	UseCache       bool  `toml:"use_cache"`
	// AutoRefresh makes the dashboard reload every watch interval.
	AutoRefresh bool `toml:"auto_refresh"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// WatchConfig configures the watch server.
type WatchConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api/v1",
			TimeoutSec: 15,
		},
		Budget: BudgetConfig{
			ActualsSource: string(model.ActualsFromItems),
		},
		General: GeneralConfig{
			UseCache: true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Watch: WatchConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitebudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sitebudget")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)

	if _, err := model.ParseActualsSource(cfg.Budget.ActualsSource); err != nil {
		return cfg, fmt.Errorf("config [budget]: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvActuals)); v != "" {
		cfg.Budget.ActualsSource = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// ActualsSource returns the validated actuals convention.
func (c Config) ActualsSource() model.ActualsSource {
	src, err := model.ParseActualsSource(c.Budget.ActualsSource)
	if err != nil {
		return model.ActualsFromItems
	}
	return src
}

// Timeout returns the per-request API timeout.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// WatchInterval returns the polling interval of the watch server.
func (c Config) WatchInterval() time.Duration {
	if c.Watch.IntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Watch.IntervalSec) * time.Second
}
