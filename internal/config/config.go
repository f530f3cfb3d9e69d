package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all allot configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Defaults   DefaultsConfig   `toml:"defaults"`
	Google     GoogleConfig     `toml:"google"`
	Appearance AppearanceConfig `toml:"appearance"`
	Serve      ServeConfig      `toml:"serve"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	BudgetFile string `toml:"budget_file,omitempty"`
	History    bool   `toml:"history"`
}

// DefaultsConfig seeds budgets created with `allot new`.
type DefaultsConfig struct {
	GrandTotal     float64         `toml:"grand_total"`
	AdminPct       float64         `toml:"admin_pct"`
	ContingencyPct float64         `toml:"contingency_pct"`
	Mode           string          `toml:"mode"`
	Groups         []GroupTemplate `toml:"groups,omitempty"`
	Fees           []FeePreset     `toml:"fees,omitempty"`
}

// GroupTemplate is a group label with the categories created under it.
type GroupTemplate struct {
	Label      string   `toml:"label"`
	Categories []string `toml:"categories"`
}

// FeePreset is a fee added to every new budget.
type FeePreset struct {
	Name  string  `toml:"name"`
	Type  string  `toml:"type"`
	Value float64 `toml:"value"`
}

// GoogleConfig holds Google Sheets import settings.
type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file,omitempty"`
	SpreadsheetID   string `toml:"spreadsheet_id,omitempty"`
	Range           string `toml:"range,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServeConfig holds settings for `allot serve`.
type ServeConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// DefaultGroups is the film-production layout used when no template is
// configured.
func DefaultGroups() []GroupTemplate {
	return []GroupTemplate{
		{Label: "TOTAL SCRIPT AND DEVELOPMENT", Categories: []string{
			"Script", "Rights", "Development", "Research",
		}},
		{Label: "TOTAL PRODUCTION COSTS", Categories: []string{
			"Producer", "Director", "Cast", "Crew", "Camera", "Lighting",
			"Sound", "Art Department", "Locations", "Travel",
		}},
		{Label: "TOTAL POST PRODUCTION", Categories: []string{
			"Editing", "Colour Grading", "Sound Mix", "Music",
		}},
		{Label: "TOTAL OTHER COSTS", Categories: []string{
			"Insurance", "Legal", "Marketing",
		}},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			BudgetFile: "budget.json",
			History:    true,
		},
		Defaults: DefaultsConfig{
			AdminPct:       5,
			ContingencyPct: 10,
			Mode:           "percentage",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Serve: ServeConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 5,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "allot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "allot")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory, home of the revision
// history database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "allot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "allot")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GroupTemplates returns the configured groups, or DefaultGroups.
func GroupTemplates(cfg Config) []GroupTemplate {
	if len(cfg.Defaults.Groups) > 0 {
		return cfg.Defaults.Groups
	}
	return DefaultGroups()
}

// GetGoogleCredentials returns inline credentials JSON from the environment
// and the configured credentials file. Either may be empty.
func GetGoogleCredentials(cfg Config) (credentialsJSON, credentialsFile string) {
	return os.Getenv("ALLOT_GOOGLE_CREDENTIALS"), cfg.Google.CredentialsFile
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
