// Package config loads and saves the repodeps configuration file. It holds
// the relation database location and the defaults every command falls back
// to when a flag is not given: branch, arch filter, closure bound, cycle
// tie-break policy, output format and log level.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repodeps/pkg/buildorder"
	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// Database is the path of the SQLite relation store.
	Database string `yaml:"database"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Repository filter
	Branch string   `yaml:"branch"`
	Archs  []string `yaml:"archs,omitempty"`

	// Engine settings
	MaxClosureRounds int    `yaml:"max_closure_rounds"` // 0 = unbounded
	CycleTieBreak    string `yaml:"cycle_tie_break"`    // size, lexical

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Default configuration values.
const (
	// DefaultBranch is the repository branch queried when none is configured.
	DefaultBranch = "sisyphus"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// Result output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	db, err := fsutil.DefaultDatabasePath()
	if err != nil {
		// Fall back to the working directory if no home is known
		db = fsutil.DatabaseFile
	}

	return &Config{
		Database: db,
		Settings: Settings{
			Branch:        DefaultBranch,
			CycleTieBreak: buildorder.TieBreakSize.String(),
			OutputFormat:  OutputText,
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	var config Config
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to path, replacing any existing file
// atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	err = fsutil.WriteFileAtomic(absPath, fsutil.FileModeDefault, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(YAMLIndent)
		if err := encoder.Encode(c); err != nil {
			return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
		}
		return encoder.Close()
	})
	if err != nil {
		return errutils.Wrap(err, "failed to save config")
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if strings.TrimSpace(s.Branch) == "" {
		return errutils.ErrEmptyBranch
	}
	if s.MaxClosureRounds < 0 {
		return errutils.ErrNegativeRounds
	}
	if _, err := buildorder.ParseTieBreak(s.CycleTieBreak); err != nil {
		return err
	}
	validFormats := []string{OutputText, OutputJSON}
	if !slices.Contains(validFormats, s.OutputFormat) {
		return errutils.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(s.LogLevel)) {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// TieBreak returns the configured cycle tie-break policy. The value has
// been checked by Validate.
func (c *Config) TieBreak() buildorder.TieBreak {
	tb, _ := buildorder.ParseTieBreak(c.Settings.CycleTieBreak)
	return tb
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	dir, err := fsutil.ConfigDir()
	if err != nil {
		return "", errutils.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.Settings.Branch == "" {
		c.Settings.Branch = defaults.Settings.Branch
	}
	if c.Settings.CycleTieBreak == "" {
		c.Settings.CycleTieBreak = defaults.Settings.CycleTieBreak
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
