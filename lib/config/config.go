// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for sqlcache.
//
// Configuration is loaded from a single file specified by:
//   - SQLCACHE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Output formats accepted by OutputConfig.Format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
)

// Config is the master configuration for sqlcache.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Root is the base directory for sqlcache data. ${SQLCACHE_ROOT}
	// in other path fields expands to it.
	Root string `yaml:"root"`

	// Database configures the SQLite connection.
	Database DatabaseConfig `yaml:"database"`

	// Output configures how results are printed.
	Output OutputConfig `yaml:"output"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Output   *OutputConfig   `yaml:"output,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
}

// DatabaseConfig configures the SQLite connection.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory
	// database.
	// Default: ${SQLCACHE_ROOT}/sqlcache.db
	Path string `yaml:"path"`

	// Pragmas run once after the database opens. Empty means the
	// connection's built-in defaults.
	Pragmas []string `yaml:"pragmas"`

	// BusyTimeout is how long to wait for a write lock, as a Go
	// duration string.
	// Default: 5s
	BusyTimeout string `yaml:"busy_timeout"`

	// SlowThreshold logs statement batches that run at least this
	// long. Empty or "0" disables slow-statement logging.
	// Default: 250ms (development), 1s (production)
	SlowThreshold string `yaml:"slow_threshold"`
}

// OutputConfig configures result printing.
type OutputConfig struct {
	// Format is one of "table", "json", or "cbor".
	// Default: table
	Format string `yaml:"format"`

	// MaxWidth truncates text cells in table output to this many
	// characters. Zero means no limit.
	// Default: 60
	MaxWidth int `yaml:"max_width"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", or "error".
	// Default: warn
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "sqlcache")

	return &Config{
		Environment: Development,
		Root:        defaultRoot,
		Database: DatabaseConfig{
			Path:          "${SQLCACHE_ROOT}/sqlcache.db",
			BusyTimeout:   "5s",
			SlowThreshold: "250ms",
		},
		Output: OutputConfig{
			Format:   FormatTable,
			MaxWidth: 60,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from SQLCACHE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if SQLCACHE_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("SQLCACHE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SQLCACHE_CONFIG environment variable not set; " +
			"set it to the path of your sqlcache.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${HOME},
// ${SQLCACHE_ROOT}, and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.ExpandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: quieter slow-statement logging.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Database: &DatabaseConfig{
					SlowThreshold: "1s",
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Database != nil {
		if overrides.Database.Path != "" {
			c.Database.Path = overrides.Database.Path
		}
		if len(overrides.Database.Pragmas) > 0 {
			c.Database.Pragmas = overrides.Database.Pragmas
		}
		if overrides.Database.BusyTimeout != "" {
			c.Database.BusyTimeout = overrides.Database.BusyTimeout
		}
		if overrides.Database.SlowThreshold != "" {
			c.Database.SlowThreshold = overrides.Database.SlowThreshold
		}
	}

	if overrides.Output != nil {
		if overrides.Output.Format != "" {
			c.Output.Format = overrides.Output.Format
		}
		if overrides.Output.MaxWidth != 0 {
			c.Output.MaxWidth = overrides.Output.MaxWidth
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// ExpandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths. LoadFile calls it; callers building on Default call it
// themselves.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"SQLCACHE_ROOT": c.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["SQLCACHE_ROOT"] = c.Root // Update for dependent paths.

	c.Database.Path = expandVars(c.Database.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}

	if _, err := c.BusyTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlowThreshold(); err != nil {
		errs = append(errs, err)
	}

	formats := []string{FormatTable, FormatJSON, FormatCBOR}
	if !contains(formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of: %v", formats))
	}
	if c.Output.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("output.max_width must not be negative"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// BusyTimeout parses Database.BusyTimeout. Empty means zero.
func (c *Config) BusyTimeout() (time.Duration, error) {
	return parseDuration("database.busy_timeout", c.Database.BusyTimeout)
}

// SlowThreshold parses Database.SlowThreshold. Empty means zero,
// which disables slow-statement logging.
func (c *Config) SlowThreshold() (time.Duration, error) {
	return parseDuration("database.slow_threshold", c.Database.SlowThreshold)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// EnsurePaths creates the database file's parent directory if it
// doesn't exist. In-memory and URI database paths are left alone.
func (c *Config) EnsurePaths() error {
	path := c.Database.Path
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}

	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
