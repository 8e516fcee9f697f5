// Package config provides configuration loading and validation for depscan.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers   = errors.New("analysis workers must be positive")
	ErrInvalidCacheSize = errors.New("analysis cache size must not be negative")
	ErrInvalidFileSize  = errors.New("invalid max file size")
	ErrInvalidFormat    = errors.New("unsupported output format")
	ErrNoSourceFilter   = errors.New("at least one source extension or language is required")
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "DEPSCAN"

// Config holds all configuration for depscan.
type Config struct {
	Sources    SourcesConfig    `mapstructure:"sources"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Manifest   ManifestConfig   `mapstructure:"manifest"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// SourcesConfig controls source collection.
type SourcesConfig struct {
	Roots       []string `mapstructure:"roots"`
	Extensions  []string `mapstructure:"extensions"`
	Languages   []string `mapstructure:"languages"`
	MaxFileSize string   `mapstructure:"max_file_size"`
	SkipVendor  bool     `mapstructure:"skip_vendor"`
}

// AnalysisConfig holds analysis-specific configuration.
type AnalysisConfig struct {
	Workers   int `mapstructure:"workers"`
	CacheSize int `mapstructure:"cache_size"`
}

// ManifestConfig locates the declared dependency manifest.
type ManifestConfig struct {
	Path string `mapstructure:"path"`
}

// ResolutionConfig locates the resolved dependency graph.
type ResolutionConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format       string `mapstructure:"format"`
	NoColor      bool   `mapstructure:"no_color"`
	SuggestPatch bool   `mapstructure:"suggest_patch"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Environment  string `mapstructure:"environment"`
}

// MaxFileSizeBytes parses Sources.MaxFileSize. Empty or "0" disables the limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	raw := strings.TrimSpace(c.Sources.MaxFileSize)
	if raw == "" || raw == "0" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidFileSize, raw, err)
	}

	return int64(min(size, uint64(1<<62))), nil
}

// New returns a viper instance with depscan defaults and environment binding.
// Command-line flags are bound onto it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Load reads configPath (or searches the default locations when empty),
// applies environment overrides and validates the result.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("depscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./.depscan")
		v.AddConfigPath("$HOME/.config/depscan")
	}

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := v.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&cfg)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Source defaults.
	v.SetDefault("sources.roots", []string{"."})
	v.SetDefault("sources.extensions", source.DefaultExtensions)
	v.SetDefault("sources.languages", source.DefaultLanguages)
	v.SetDefault("sources.max_file_size", "1MB")
	v.SetDefault("sources.skip_vendor", true)

	// Analysis defaults.
	v.SetDefault("analysis.workers", analysis.DefaultWorkers)
	v.SetDefault("analysis.cache_size", source.DefaultCacheEntries)

	// Input defaults.
	v.SetDefault("manifest.path", "dependencies.yaml")
	v.SetDefault("resolution.path", ".depscan/resolution.json")

	// Output defaults.
	v.SetDefault("output.format", FormatText)
	v.SetDefault("output.no_color", false)
	v.SetDefault("output.suggest_patch", false)

	// Logging defaults.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Telemetry defaults.
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.environment", "")
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.Analysis.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Analysis.Workers)
	}

	if cfg.Analysis.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, cfg.Analysis.CacheSize)
	}

	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML}, cfg.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Output.Format)
	}

	if len(cfg.Sources.Extensions) == 0 && len(cfg.Sources.Languages) == 0 {
		return ErrNoSourceFilter
	}

	_, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	return nil
}
