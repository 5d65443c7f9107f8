// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	// Run gets its marching orders from CLI flags, not the config file.
	Run RunConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig tunes the browser process and per-session behavior.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ActionTimeout is the default readiness wait enforced per interaction.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// NetworkQuietPeriod is the window with no in-flight requests that counts
	// as "network idle".
	NetworkQuietPeriod time.Duration `mapstructure:"network_quiet_period" yaml:"network_quiet_period"`
}

// ResolverConfig tunes standard resolution and self-healing.
type ResolverConfig struct {
	// AdvisoryWait bounds the purely advisory attach wait issued before
	// standard resolution. A timeout here is never fatal.
	AdvisoryWait time.Duration `mapstructure:"advisory_wait" yaml:"advisory_wait"`
	// FuzzyClassMinMatches/FuzzyClassMaxMatches bound the match count a single
	// class token must produce for the fuzzy-class heal to trust it. The
	// 1..3 defaults are a heuristic, hence configurable.
	FuzzyClassMinMatches int `mapstructure:"fuzzy_class_min_matches" yaml:"fuzzy_class_min_matches"`
	FuzzyClassMaxMatches int `mapstructure:"fuzzy_class_max_matches" yaml:"fuzzy_class_max_matches"`
}

// RunnerConfig tunes the action sequencer.
type RunnerConfig struct {
	// DateFormat is the layout relative-date keywords resolve to.
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
	// ScenarioConcurrency caps how many scenarios execute in parallel, each in
	// its own browser context. Actions within a scenario are always sequential.
	ScenarioConcurrency int `mapstructure:"scenario_concurrency" yaml:"scenario_concurrency"`
	// ScreenshotDir receives screenshot captures.
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// RunConfig holds settings populated from CLI flags for a specific run.
type RunConfig struct {
	SuiteFile string
	Output    string
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "stepright")
	v.SetDefault("logger.log_file", "stepright.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.network_quiet_period", "1500ms")

	// -- Resolver --
	v.SetDefault("resolver.advisory_wait", "5s")
	v.SetDefault("resolver.fuzzy_class_min_matches", 1)
	v.SetDefault("resolver.fuzzy_class_max_matches", 3)

	// -- Runner --
	v.SetDefault("runner.date_format", "2006-01-02")
	v.SetDefault("runner.scenario_concurrency", 1)
	v.SetDefault("runner.screenshot_dir", "screenshots")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be a positive duration")
	}
	if c.Resolver.AdvisoryWait < 0 {
		return fmt.Errorf("resolver.advisory_wait must not be negative")
	}
	if c.Resolver.FuzzyClassMinMatches < 1 {
		return fmt.Errorf("resolver.fuzzy_class_min_matches must be at least 1")
	}
	if c.Resolver.FuzzyClassMaxMatches < c.Resolver.FuzzyClassMinMatches {
		return fmt.Errorf("resolver.fuzzy_class_max_matches must not be below the minimum")
	}
	if c.Runner.ScenarioConcurrency <= 0 {
		return fmt.Errorf("runner.scenario_concurrency must be a positive integer")
	}
	if c.Runner.DateFormat == "" {
		return fmt.Errorf("runner.date_format must not be empty")
	}
	return nil
}
