// Package config loads kbedit settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	dirName  = ".kbedit"
	fileName = "config.toml"
)

type Config struct {
	Editor    EditorConfig    `toml:"editor"`
	Storage   StorageConfig   `toml:"storage"`
	Revisions RevisionsConfig `toml:"revisions"`
	Log       LogConfig       `toml:"log"`
}

type EditorConfig struct {
	// AutosaveDelay is a duration string; "0" disables autosave.
	AutosaveDelay string `toml:"autosave_delay"`
	HistoryLimit  int    `toml:"history_limit"`
}

type StorageConfig struct {
	// Driver is sqlite, postgres, mysql or mongo.
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
	DataDir string `toml:"data_dir"`
	// Structured keeps the block document next to the flat text.
	Structured bool `toml:"structured"`

	// Hosted connection parameters, used when DSN is empty.
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Database       string `toml:"database"`
	Username       string `toml:"username"`
	PasswordSecret string `toml:"password_secret"`
	SSLMode        string `toml:"ssl_mode"`
}

type RevisionsConfig struct {
	// Keep bounds revisions per article; zero keeps all.
	Keep int `toml:"keep"`
	// Retention drops revisions older than this duration on each sweep.
	Retention string `toml:"retention"`
	// Sweep is a cron schedule; empty disables the sweep.
	Sweep string `toml:"sweep"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			AutosaveDelay: "2s",
			HistoryLimit:  50,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			Structured: true,
		},
		Revisions: RevisionsConfig{
			Keep:      100,
			Retention: "720h",
			Sweep:     "@daily",
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultDir returns ~/.kbedit.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

// Load reads path over the defaults. An empty path reads
// ~/.kbedit/config.toml; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, fileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks durations, limits and the storage driver.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Editor.Delay(); err != nil {
		errs = append(errs, err)
	}
	if c.Editor.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("editor.history_limit must not be negative"))
	}
	if _, err := c.Revisions.RetentionPeriod(); err != nil {
		errs = append(errs, err)
	}
	if c.Revisions.Keep < 0 {
		errs = append(errs, fmt.Errorf("revisions.keep must not be negative"))
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pg", "mysql", "mongo", "mongodb":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// Delay parses AutosaveDelay. Zero and negative delays disable autosave.
func (e EditorConfig) Delay() (time.Duration, error) {
	return parseDuration("editor.autosave_delay", e.AutosaveDelay)
}

// RetentionPeriod parses Retention. Zero disables pruning by age.
func (r RevisionsConfig) RetentionPeriod() (time.Duration, error) {
	return parseDuration("revisions.retention", r.Retention)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// SQLitePath is the database file used by the sqlite driver.
func (s StorageConfig) SQLitePath() string {
	if s.DSN != "" {
		return s.DSN
	}
	return filepath.Join(s.DataDir, "kbedit.db")
}
