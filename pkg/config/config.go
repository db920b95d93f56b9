// Package config provides YAML-based configuration loading for ros-rl.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name of the environment/application
	AppName string `mapstructure:"app_name"`

	// Env holds environment-construction options
	Env EnvOptions `mapstructure:"env"`

	// Master holds roscore launch/probe settings
	Master MasterConfig `mapstructure:"master"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
}

// EnvOptions is the configuration surface consumed during environment
// construction. The three master flags are evaluated in fixed priority
// order: DefaultPort, then NewRoscore, then RoscorePort.
type EnvOptions struct {
	// NewRoscore forces launching a new roscore process
	NewRoscore bool `mapstructure:"new_roscore"`
	// RoscorePort explicit port to launch at or attach to; 0 = unset
	RoscorePort int `mapstructure:"roscore_port"`
	// DefaultPort forces launching a new roscore at the well-known port
	DefaultPort bool `mapstructure:"default_port"`
	// Seed for the environment RNG; negative = unseeded
	Seed int64 `mapstructure:"seed"`
	// ResetEnvPrompt gates an interactive confirmation before each reset
	ResetEnvPrompt bool `mapstructure:"reset_env_prompt"`
	// ActionCycleTime minimum delay enforced between step actions
	ActionCycleTime time.Duration `mapstructure:"action_cycle_time"`
}

// MasterConfig controls how the roscore process is launched and probed.
type MasterConfig struct {
	// Bin is the roscore executable name or path
	Bin string `mapstructure:"bin"`
	// Host the master binds/listens on
	Host string `mapstructure:"host"`
	// StartTimeout bounds the wait for a launched master to become reachable
	StartTimeout time.Duration `mapstructure:"start_timeout"`
	// ProbeTimeout bounds a single reachability probe
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "rosrl-env",
		Env: EnvOptions{
			NewRoscore:      true,
			RoscorePort:     0,
			DefaultPort:     false,
			Seed:            -1,
			ResetEnvPrompt:  false,
			ActionCycleTime: 0,
		},
		Master: MasterConfig{
			Bin:          "roscore",
			Host:         "localhost",
			StartTimeout: 30 * time.Second,
			ProbeTimeout: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/rosrl.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix ROSRL and `.`/`-` are replaced with `_`.
// Example: ROSRL_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ROSRL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("env.new_roscore", cfg.Env.NewRoscore)
	v.SetDefault("env.roscore_port", cfg.Env.RoscorePort)
	v.SetDefault("env.default_port", cfg.Env.DefaultPort)
	v.SetDefault("env.seed", cfg.Env.Seed)
	v.SetDefault("env.reset_env_prompt", cfg.Env.ResetEnvPrompt)
	v.SetDefault("env.action_cycle_time", cfg.Env.ActionCycleTime)
	v.SetDefault("master.bin", cfg.Master.Bin)
	v.SetDefault("master.host", cfg.Master.Host)
	v.SetDefault("master.start_timeout", cfg.Master.StartTimeout)
	v.SetDefault("master.probe_timeout", cfg.Master.ProbeTimeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	// Choose config file
	if path == "" {
		// Allow override via env var
		if envPath := os.Getenv("ROSRL_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `rosrl`
		v.SetConfigName("rosrl")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".rosrl"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	if p := c.Env.RoscorePort; p < 0 || p > 65535 {
		return fmt.Errorf("invalid env.roscore_port: %d", p)
	}
	if c.Env.ActionCycleTime < 0 {
		return fmt.Errorf("invalid env.action_cycle_time: %v", c.Env.ActionCycleTime)
	}

	if strings.TrimSpace(c.Master.Bin) == "" {
		c.Master.Bin = "roscore"
	}
	if strings.TrimSpace(c.Master.Host) == "" {
		c.Master.Host = "localhost"
	}
	if c.Master.StartTimeout <= 0 {
		c.Master.StartTimeout = 30 * time.Second
	}
	if c.Master.ProbeTimeout <= 0 {
		c.Master.ProbeTimeout = 500 * time.Millisecond
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
