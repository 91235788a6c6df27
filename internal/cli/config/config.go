package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the topickey configuration
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Schema SchemaConfig `mapstructure:"schema"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig represents report rendering configuration
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// SchemaConfig lists the schema files used when a command gets none
type SchemaConfig struct {
	Paths []string `mapstructure:"paths"`
}

// Output formats
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
)

// OutputFormats lists the accepted values of output.format
var OutputFormats = []string{FormatTable, FormatYAML, FormatJSON, FormatCBOR}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
)

// Load loads the configuration. An explicit path must exist; otherwise
// topickey.yaml in the working directory is read when present.
// Environment variables prefixed with TOPICKEY_ override both, with dots
// replaced by underscores (TOPICKEY_OUTPUT_FORMAT).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.no_color", false)
	v.SetDefault("schema.paths", []string{})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("topickey")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TOPICKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks enumerated settings
func Validate(cfg *Config) error {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)

	if !contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf("log.level must be one of %s, got: %s", strings.Join(logLevels, ", "), cfg.Log.Level)
	}
	if !contains(logFormats, cfg.Log.Format) {
		return fmt.Errorf("log.format must be one of %s, got: %s", strings.Join(logFormats, ", "), cfg.Log.Format)
	}
	if !contains(OutputFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format must be one of %s, got: %s", strings.Join(OutputFormats, ", "), cfg.Output.Format)
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
