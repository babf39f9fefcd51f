package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Modes reported to clients by the system endpoint
const (
	ModeAdmin  = "admin"
	ModeMember = "member"
)

// Config holds server and client preferences. Values come from the YAML file
// first and are then overridden by any WBS_* variables that are set.
type Config struct {
	// Server
	Port          int    `yaml:"port" json:"port" env:"WBS_PORT"`
	DataPath      string `yaml:"data_path" json:"data_path" env:"WBS_DATA_PATH"`                // JSON file or SQLite database
	StorageDriver string `yaml:"storage_driver" json:"storage_driver" env:"WBS_STORAGE_DRIVER"` // file, sqlite or postgres
	DatabaseURL   string `yaml:"database_url" json:"database_url" env:"WBS_DATABASE_URL"`
	Mode          string `yaml:"mode" json:"mode" env:"WBS_MODE"`
	UserID        string `yaml:"user_id" json:"user_id" env:"WBS_USER_ID"`

	// Backups
	BackupDir     string `yaml:"backup_dir" json:"backup_dir" env:"WBS_BACKUP_DIR"`
	BackupEnabled bool   `yaml:"backup_enabled" json:"backup_enabled" env:"WBS_BACKUP_ENABLED"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level" env:"WBS_LOG_LEVEL"`       // DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file" env:"WBS_LOG_FILE"`          // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console" env:"WBS_LOG_CONSOLE"` // Mirror logs to stderr
}

// Dir returns ~/.wbs, where config, data and logs live by default
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".wbs"
	}
	return filepath.Join(home, ".wbs")
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Port:          8080,
		DataPath:      filepath.Join(dir, "data.json"),
		StorageDriver: "file",
		Mode:          ModeAdmin,
		BackupDir:     filepath.Join(dir, "backups"),
		BackupEnabled: true,
		LogLevel:      "INFO",
		LogFile:       filepath.Join(dir, "logs", "wbs.log"),
	}
}

// Load reads the config at path (DefaultPath when empty), then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Mode {
	case ModeAdmin, ModeMember:
	default:
		return fmt.Errorf("invalid mode %q: must be %s or %s", c.Mode, ModeAdmin, ModeMember)
	}
	if c.Mode == ModeMember && c.UserID == "" {
		return errors.New("member mode requires user_id")
	}
	return nil
}

// Save writes the config to path (DefaultPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
