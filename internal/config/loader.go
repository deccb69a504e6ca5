// Package config loads command line configuration from an optional YAML
// file, ROMA_ environment variables, an optional .env file and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/binrc/roma-client-go/internal/logger"
)

// Config is the command line configuration.
type Config struct {
	APIURL      string        `mapstructure:"api_url"`
	Origin      string        `mapstructure:"origin"`
	Credentials string        `mapstructure:"credentials"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
}

// LoggerConfig returns the logger settings for c.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(c.LogLevel)
	cfg.Format = logger.OutputFormat(c.LogFormat)
	return cfg
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	dotenv     []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile reads path instead of searching for .roma.yaml.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// SetDotenvFiles overrides the .env files read before the environment.
// Missing files are ignored.
func (l *Loader) SetDotenvFiles(paths ...string) {
	l.dotenv = paths
}

// BindFlags binds flags to configuration keys. Flag names use dashes,
// keys use underscores.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"api_url":      "api-url",
		"origin":       "origin",
		"credentials":  "credentials",
		"timeout":      "timeout",
		"max_attempts": "max-attempts",
		"log_level":    "log-level",
		"log_format":   "log-format",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load loads configuration from files and environment variables.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDotenv(); err != nil {
		return nil, err
	}

	l.setDefaults()
	l.setupConfigPaths()
	l.setupEnvVars()

	// Try to read config file (it's optional unless named explicitly)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.Credentials = expandPath(cfg.Credentials)

	return &cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) loadDotenv() error {
	files := l.dotenv
	if files == nil {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", f, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("api_url", "")
	l.v.SetDefault("origin", "")
	l.v.SetDefault("credentials", "~/.roma/credentials.json")
	l.v.SetDefault("timeout", "30s")
	l.v.SetDefault("max_attempts", 3)
	l.v.SetDefault("retry_delay", "1s")
	l.v.SetDefault("log_level", "warn")
	l.v.SetDefault("log_format", "text")
}

// setupConfigPaths configures where to search for config files.
func (l *Loader) setupConfigPaths() {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		return
	}

	l.v.SetConfigName(".roma")
	l.v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".roma"))
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath(".")
}

// setupEnvVars configures environment variable handling.
func (l *Loader) setupEnvVars() {
	l.v.SetEnvPrefix("ROMA")
	l.v.AutomaticEnv()
}

// validate checks cfg and normalizes the log settings.
func validate(cfg *Config) error {
	if cfg.Credentials == "" {
		return fmt.Errorf("credentials path is required")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if cfg.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	cfg.LogLevel = string(level)
	cfg.LogFormat = string(format)
	return nil
}

// expandPath expands ~ to home directory in file paths.
func expandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[1:])
}
