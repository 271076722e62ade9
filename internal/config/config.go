package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete launcher service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Store    StoreConfig    `yaml:"store" envconfig:"STORE"`
	Device   DeviceConfig   `yaml:"device" envconfig:"DEVICE"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// StoreConfig contains remote license store configuration. The token is
// externally supplied; it is never embedded in the binary.
type StoreConfig struct {
	Backend      string        `yaml:"backend" envconfig:"BACKEND" default:"http"`
	BaseURL      string        `yaml:"base_url" envconfig:"BASE_URL"`
	Token        string        `yaml:"token" envconfig:"TOKEN"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
	SheetID      string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetName    string        `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Licenses"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
}

// DeviceConfig contains device fingerprinting configuration. The salt is
// deliberately configuration, never a source literal.
type DeviceConfig struct {
	Salt string `yaml:"salt" envconfig:"SALT"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig bounds activation attempts per license key.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"1"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"5"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/launcher.log"`
}

// Load loads configuration from environment variables (prefix GL) layered
// over an optional YAML config file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("GL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("GL_CONFIG_FILE"); path != "" {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml")
}

// merge overlays env-derived values on top of file values: any field set
// in the environment wins.
func merge(file, env Config) Config {
	out := file

	if env.Server.Port != 0 {
		out.Server.Port = env.Server.Port
	}
	if env.Server.ReadTimeout != 0 {
		out.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if env.Server.WriteTimeout != 0 {
		out.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if env.Server.IdleTimeout != 0 {
		out.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if env.Server.ShutdownTimeout != 0 {
		out.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}

	if env.Store.Backend != "" {
		out.Store.Backend = env.Store.Backend
	}
	if env.Store.BaseURL != "" {
		out.Store.BaseURL = env.Store.BaseURL
	}
	if env.Store.Token != "" {
		out.Store.Token = env.Store.Token
	}
	if env.Store.FetchTimeout != 0 {
		out.Store.FetchTimeout = env.Store.FetchTimeout
	}
	if env.Store.SheetID != "" {
		out.Store.SheetID = env.Store.SheetID
	}
	if env.Store.SheetName != "" {
		out.Store.SheetName = env.Store.SheetName
	}
	if env.Store.APIKey != "" {
		out.Store.APIKey = env.Store.APIKey
	}

	if env.Device.Salt != "" {
		out.Device.Salt = env.Device.Salt
	}

	out.Security.RateLimit.Enabled = env.Security.RateLimit.Enabled
	if env.Security.RateLimit.RPS != 0 {
		out.Security.RateLimit.RPS = env.Security.RateLimit.RPS
	}
	if env.Security.RateLimit.Burst != 0 {
		out.Security.RateLimit.Burst = env.Security.RateLimit.Burst
	}

	if env.Logging.Level != "" {
		out.Logging.Level = env.Logging.Level
	}
	if env.Logging.Output != "" {
		out.Logging.Output = env.Logging.Output
	}
	if env.Logging.FilePath != "" {
		out.Logging.FilePath = env.Logging.FilePath
	}

	return out
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Store.Backend) {
	case "http":
		if c.Store.BaseURL == "" {
			return fmt.Errorf("store.base_url is required for the http backend")
		}
	case "sheets":
		if c.Store.SheetID == "" {
			return fmt.Errorf("store.sheet_id is required for the sheets backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.Store.FetchTimeout <= 0 {
		return fmt.Errorf("store.fetch_timeout must be positive")
	}

	if c.Device.Salt == "" {
		return fmt.Errorf("device.salt is required (set GL_DEVICE_SALT)")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	return nil
}
