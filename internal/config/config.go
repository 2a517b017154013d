package config

import (
	"strings"

	"github.com/spf13/viper"

	"voteaudit/domain/anomaly"
	"voteaudit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds report store connection settings.
// An empty URL disables persistence.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// Enabled reports whether a report store should be opened.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalysisConfig holds engine settings
type AnalysisConfig struct {
	Parallel   bool               `mapstructure:"parallel"`
	Thresholds anomaly.Thresholds `mapstructure:"thresholds"`
}

// Load reads configuration from an optional YAML file and VOTEAUDIT_* environment
// variables, then validates it. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("VOTEAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// conventional names used by deployment scripts
	_ = v.BindEnv("database.url", "VOTEAUDIT_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", "VOTEAUDIT_SERVER_PORT", "PORT")
	_ = v.BindEnv("logging.level", "VOTEAUDIT_LOGGING_LEVEL", "LOG_LEVEL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	th := anomaly.DefaultThresholds()
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "postgres"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Analysis: AnalysisConfig{Parallel: true, Thresholds: th},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.url", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("analysis.parallel", d.Analysis.Parallel)
	th := d.Analysis.Thresholds
	defaults := map[string]interface{}{
		"fence_multiplier":       th.FenceMultiplier,
		"turnout_high_z":         th.TurnoutHighZ,
		"invalid_high_pct":       th.InvalidHighPct,
		"blank_high_pct":         th.BlankHighPct,
		"wasted_high_pct":        th.WastedHighPct,
		"dominance_pct":          th.DominancePct,
		"dominance_high_pct":     th.DominanceHighPct,
		"close_margin_pct":       th.CloseMarginPct,
		"benford_min_sample":     th.BenfordMinSample,
		"benford_alpha":          th.BenfordAlpha,
		"benford_strict_alpha":   th.BenfordStrictAlpha,
		"round_number_pct":       th.RoundNumberPct,
		"low_cv_pct":             th.LowCVPct,
		"linear_r":               th.LinearR,
		"linear_min_sample":      th.LinearMinSample,
		"monopoly_min_units":     th.MonopolyMinUnits,
		"province_turnout_stdev": th.ProvinceTurnoutStdev,
		"candidate_error_limit":  th.CandidateErrorLimit,
		"incomplete_limit":       th.IncompleteLimit,
	}
	for k, val := range defaults {
		v.SetDefault("analysis.thresholds."+k, val)
	}
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server.port is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("database.driver must be one of: postgres, sqlite")
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return errors.ConfigInvalid("logging.level must be one of: error, warn, info, debug, trace")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return errors.ConfigInvalid("logging.format must be one of: json, text")
	}

	if err := c.Analysis.Thresholds.Validate(); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "invalid analysis.thresholds")
	}
	return nil
}
