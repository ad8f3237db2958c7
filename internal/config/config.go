// Package config loads the vellum YAML configuration and applies
// environment overrides.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Vellum/core/compiler"
	"github.com/FocuswithJustin/Vellum/core/patch"
)

// Environment variables that override file settings.
const (
	EnvLogLevel  = "VELLUM_LOG_LEVEL"
	EnvLogFormat = "VELLUM_LOG_FORMAT"
	EnvDB        = "VELLUM_DB"
	EnvThreshold = "VELLUM_DIFF_THRESHOLD"
)

// DictionaryConfig points at YAML entity and normalization tables. Empty
// paths select the built-in tables.
type DictionaryConfig struct {
	Entities      string `yaml:"entities"`
	Normalization string `yaml:"normalization"`
}

// StoreConfig locates the lemma and annotation database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PatchConfig tunes the diff engine.
type PatchConfig struct {
	Threshold int `yaml:"threshold"`
}

// ValidationConfig tunes the validation worker.
type ValidationConfig struct {
	SchemaCacheSize int `yaml:"schema_cache_size"`
	QueueSize       int `yaml:"queue_size"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Compiler   compiler.Config  `yaml:"compiler"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Store      StoreConfig      `yaml:"store"`
	Patch      PatchConfig      `yaml:"patch"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Compiler:   compiler.DefaultConfig(),
		Patch:      PatchConfig{Threshold: patch.DefaultThreshold},
		Validation: ValidationConfig{SchemaCacheSize: 16, QueueSize: 8},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a config from path on top of the defaults. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	applyDefaults(cfg)
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadDefault tries ./vellum.yaml, then ~/.config/vellum/config.yaml. It
// returns the path used, or "" when only defaults apply.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat("vellum.yaml"); err == nil {
		cfg, err := Load("vellum.yaml")
		return cfg, "vellum.yaml", err
	}
	userPath, err := defaultUserConfigPath()
	if err == nil {
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides cfg with VELLUM_* environment variables.
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Patch.Threshold = n
		}
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vellum", "config.yaml"), nil
}

func applyDefaults(cfg *AppConfig) {
	d := Default()
	if cfg.Patch.Threshold <= 0 {
		cfg.Patch.Threshold = d.Patch.Threshold
	}
	if cfg.Validation.SchemaCacheSize <= 0 {
		cfg.Validation.SchemaCacheSize = d.Validation.SchemaCacheSize
	}
	if cfg.Validation.QueueSize <= 0 {
		cfg.Validation.QueueSize = d.Validation.QueueSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}
