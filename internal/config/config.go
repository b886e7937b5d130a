package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	configData Config
	v          *viper.Viper
)

// PoolSettings describes one pool template as it appears in the config
// file; the factory and deactivation hook are supplied by the host code,
// never by configuration.
type PoolSettings struct {
	Group       string        `mapstructure:"group"`
	Tag         string        `mapstructure:"tag"`
	InitialSize int           `mapstructure:"initial_size"`
	AllowExpand bool          `mapstructure:"allow_expand"`
	MaxSize     int           `mapstructure:"max_size"`
	CullExcess  bool          `mapstructure:"cull_excess"`
	CullDelay   time.Duration `mapstructure:"cull_delay"`
}

// Config holds all configuration settings.
type Config struct {
	// Server configuration
	Server struct {
		Host string
		Port int
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
	// Workload configuration for the demo spawner
	Workload struct {
		Interval   time.Duration
		SpawnBurst int `mapstructure:"spawn_burst"`
		HoldTicks  int `mapstructure:"hold_ticks"`
	}
	// Pool templates registered at startup
	Pools []PoolSettings
}

// Initialize sets up the configuration system.
func Initialize() error {
	v = viper.New()

	// Set config name and paths
	v.SetConfigName("config")         // name of config file (without extension)
	v.SetConfigType("yaml")           // config file type
	v.AddConfigPath(".")              // optionally look for config in working directory
	v.AddConfigPath("$HOME/.go_pool") // look for config in .go_pool directory in home
	v.AddConfigPath("/etc/go_pool/")  // path to look for the config file in

	// Set default values
	setDefaults()

	// Environment variables
	v.SetEnvPrefix("GOPOOL") // prefix for env vars
	v.AutomaticEnv()         // read in environment variables that match
	v.SetEnvKeyReplacer(     // replace dots with underscores in env vars
		strings.NewReplacer(".", "_"),
	)

	// Create config file if it doesn't exist
	if err := ensureConfig(); err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}

	// Read in config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if we can't find a config file, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal config into struct
	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 1600)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")

	// Workload defaults
	v.SetDefault("workload.interval", "250ms")
	v.SetDefault("workload.spawn_burst", 3)
	v.SetDefault("workload.hold_ticks", 4)

	// Pool defaults: one demo pool so serve and watch have something to show
	v.SetDefault("pools", []map[string]any{
		{
			"group":        "particles",
			"tag":          "spark",
			"initial_size": 8,
			"allow_expand": true,
			"max_size":     64,
			"cull_excess":  true,
			"cull_delay":   "30s",
		},
	})
}

// ensureConfig creates a default config file if none exists.
func ensureConfig() error {
	// Check if config file exists
	if _, err := os.Stat(filepath.Join(os.Getenv("HOME"), ".go_pool")); os.IsNotExist(err) {
		// Create directory
		if err := os.MkdirAll(filepath.Join(os.Getenv("HOME"), ".go_pool"), 0o755); err != nil {
			return err
		}
	}

	configFile := filepath.Join(os.Getenv("HOME"), ".go_pool", "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		// Create default config file
		defaultConfig := `# GO POOL Configuration File
server:
  host: localhost
  port: 1600

log:
  level: info
  format: human

workload:
  interval: 250ms
  spawn_burst: 3
  hold_ticks: 4

pools:
  - group: particles
    tag: spark
    initial_size: 8
    allow_expand: true
    max_size: 64
    cull_excess: true
    cull_delay: 30s
`
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
