// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/appraisal-cli/internal/compstore"
	"github.com/sells-group/appraisal-cli/internal/estimate"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Profiles  ProfilesConfig  `yaml:"profiles" mapstructure:"profiles"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the comparable-sales database backend.
type StoreConfig struct {
	Driver      string               `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string               `yaml:"database_url" mapstructure:"database_url"`
	Pool        compstore.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ProfilesConfig points at the weight-profile catalog directory.
// Built-in profiles are always available; the directory adds or
// overrides by name.
type ProfilesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ValuationConfig configures the estimation pipeline.
type ValuationConfig struct {
	// Robust selects the Theil-Sen regression fit instead of OLS.
	Robust         bool            `yaml:"robust" mapstructure:"robust"`
	Reconciliation estimate.Policy `yaml:"reconciliation" mapstructure:"reconciliation"`
}

// ServerConfig configures the valuation webhook server.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPRAISAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	pol := estimate.DefaultPolicy()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "comps.db")
	v.SetDefault("profiles.dir", "")
	v.SetDefault("valuation.robust", false)
	v.SetDefault("valuation.reconciliation.sample_damping", pol.SampleDamping)
	v.SetDefault("valuation.reconciliation.tightness_shift", pol.TightnessShift)
	v.SetDefault("valuation.reconciliation.extrapolation_shift", pol.ExtrapolationShift)
	v.SetDefault("valuation.reconciliation.max_regression_weight", pol.MaxRegressionWeight)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
