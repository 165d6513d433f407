// Package config loads focusctl settings from defaults, an optional YAML file,
// and HOMEFOCUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// EnvPrefix namespaces environment overrides, e.g. HOMEFOCUS_STORAGE_PATH.
const EnvPrefix = "HOMEFOCUS"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the resolved configuration.
type Config struct {
	Priority PriorityConfig `mapstructure:"priority"`
	Signals  SignalsConfig  `mapstructure:"signals"`
	Gate     GateConfig     `mapstructure:"gate"`
	Focus    FocusConfig    `mapstructure:"focus"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

type PriorityConfig struct {
	HorizonMonths float64 `mapstructure:"horizon_months"`
}

type SignalsConfig struct {
	PlanningLeadMonths float64 `mapstructure:"planning_lead_months"`
	DefaultConfidence  float64 `mapstructure:"default_confidence"`
}

type GateConfig struct {
	BannerCooldown time.Duration `mapstructure:"banner_cooldown"`
	DailyLocation  string        `mapstructure:"daily_location"`
}

type FocusConfig struct {
	DefaultTab string `mapstructure:"default_tab"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// #region viper

// SetDefaults registers every key so environment overrides resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("priority.horizon_months", priority.DefaultHorizonMonths)
	v.SetDefault("signals.planning_lead_months", 24.0)
	v.SetDefault("signals.default_confidence", 0.5)
	v.SetDefault("gate.banner_cooldown", "30m")
	v.SetDefault("gate.daily_location", "UTC")
	v.SetDefault("focus.default_tab", "overview")
	v.SetDefault("storage.path", "homefocus.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("server.addr", "127.0.0.1:50061")
}

// NewViper returns a viper instance with defaults and env binding applied.
// When cfgFile is empty, config.yaml is searched in the working directory and
// missing files are not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(cfgFile string) (Config, error) {
	v, err := NewViper(cfgFile)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// #endregion viper

// #region validate

// Validate checks ranges and parses the location.
func (c Config) Validate() error {
	switch {
	case c.Priority.HorizonMonths <= 0:
		return fmt.Errorf("%w: priority.horizon_months must be positive, got %v", ErrInvalidConfig, c.Priority.HorizonMonths)
	case c.Signals.PlanningLeadMonths < 0:
		return fmt.Errorf("%w: signals.planning_lead_months must not be negative, got %v", ErrInvalidConfig, c.Signals.PlanningLeadMonths)
	case c.Signals.DefaultConfidence < 0 || c.Signals.DefaultConfidence > 1:
		return fmt.Errorf("%w: signals.default_confidence must be within [0,1], got %v", ErrInvalidConfig, c.Signals.DefaultConfidence)
	case c.Gate.BannerCooldown < 0:
		return fmt.Errorf("%w: gate.banner_cooldown must not be negative, got %v", ErrInvalidConfig, c.Gate.BannerCooldown)
	case c.Storage.Path == "":
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: gate.daily_location: %v", ErrInvalidConfig, err)
	}
	return nil
}

// #endregion validate

// #region accessors

// NormalizeConfig maps the signals section onto the normalizer's knobs.
func (c Config) NormalizeConfig() signals.NormalizeConfig {
	nc := signals.DefaultNormalizeConfig()
	nc.PlanningLeadMonths = c.Signals.PlanningLeadMonths
	nc.DefaultConfidence = c.Signals.DefaultConfidence
	return nc
}

// Location resolves gate.daily_location.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Gate.DailyLocation)
}

// #endregion accessors
