// Package config loads vehicle-select configuration.
//
// Sources, highest precedence first:
//  1. CLI flags
//  2. Environment variables (VSELECT_ prefix, dashes become underscores)
//  3. Config file (.vselect.yaml)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WessleyAI/vehicle-select/engine/vpic"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultSubject is the NATS subject finalized selections are published on.
const DefaultSubject = "wessley.vehicle.selected"

// Config is shared by the API server and the catalog CLI.
type Config struct {
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// HTTP server.
	Port       string  `mapstructure:"port"`
	CORSOrigin string  `mapstructure:"cors-origin"`
	RateLimit  float64 `mapstructure:"rate-limit"`
	RateBurst  int     `mapstructure:"rate-burst"`

	// Upstream vPIC API.
	VPICURL         string        `mapstructure:"vpic-url"`
	VPICTimeout     time.Duration `mapstructure:"vpic-timeout"`
	VPICRate        float64       `mapstructure:"vpic-rate"`
	VPICBurst       int           `mapstructure:"vpic-burst"`
	BreakerFailures int           `mapstructure:"breaker-failures"`
	BreakerReset    time.Duration `mapstructure:"breaker-reset"`

	// Selection publishing. Empty NATSURL logs selections instead.
	NATSURL     string `mapstructure:"nats-url"`
	NATSSubject string `mapstructure:"nats-subject"`

	// Catalog export.
	Neo4jURL  string `mapstructure:"neo4j-url"`
	Neo4jUser string `mapstructure:"neo4j-user"`
	Neo4jPass string `mapstructure:"neo4j-pass"`

	// Catalog build.
	Workers  int `mapstructure:"workers"`
	Attempts int `mapstructure:"attempts"`

	// ConfigFile is the resolved config file path, set by Load.
	ConfigFile string `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:        LogLevelInfo,
		LogFormat:       LogFormatText,
		Port:            "8080",
		CORSOrigin:      "*",
		RateBurst:       20,
		VPICURL:         "https://vpic.nhtsa.dot.gov/api/vehicles",
		VPICTimeout:     15 * time.Second,
		VPICRate:        5,
		VPICBurst:       3,
		BreakerFailures: 5,
		BreakerReset:    30 * time.Second,
		NATSSubject:     DefaultSubject,
		Neo4jURL:        "neo4j://localhost:7687",
		Neo4jUser:       "neo4j",
		Workers:         4,
		Attempts:        3,
	}
}

// Validate checks enumerations and bounds.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}
	if c.VPICURL == "" {
		return fmt.Errorf("vpic-url must not be empty")
	}
	if c.RateLimit < 0 || c.VPICRate < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", c.Attempts)
	}
	return nil
}

// Load reads configuration from defaults, an optional config file, the
// environment and the flags of cmd and its parents. cmd may be nil.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("port", d.Port)
	v.SetDefault("cors-origin", d.CORSOrigin)
	v.SetDefault("rate-limit", d.RateLimit)
	v.SetDefault("rate-burst", d.RateBurst)
	v.SetDefault("vpic-url", d.VPICURL)
	v.SetDefault("vpic-timeout", d.VPICTimeout)
	v.SetDefault("vpic-rate", d.VPICRate)
	v.SetDefault("vpic-burst", d.VPICBurst)
	v.SetDefault("breaker-failures", d.BreakerFailures)
	v.SetDefault("breaker-reset", d.BreakerReset)
	v.SetDefault("nats-url", d.NATSURL)
	v.SetDefault("nats-subject", d.NATSSubject)
	v.SetDefault("neo4j-url", d.Neo4jURL)
	v.SetDefault("neo4j-user", d.Neo4jUser)
	v.SetDefault("neo4j-pass", d.Neo4jPass)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("attempts", d.Attempts)
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("VSELECT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName(".vselect")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "vselect"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// bindFlags binds cmd's own flags and the persistent flags up to the root.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}
	return nil
}

// VPIC converts the upstream settings into a vPIC client configuration.
func (c *Config) VPIC() vpic.Config {
	vc := vpic.DefaultConfig()
	vc.BaseURL = c.VPICURL
	vc.Timeout = c.VPICTimeout
	vc.Burst = c.VPICBurst
	vc.RateLimit = 0
	if c.VPICRate > 0 {
		vc.RateLimit = time.Duration(float64(time.Second) / c.VPICRate)
	}
	if c.BreakerFailures > 0 {
		vc.Breaker.FailThreshold = c.BreakerFailures
	}
	if c.BreakerReset > 0 {
		vc.Breaker.Timeout = c.BreakerReset
	}
	return vc
}
