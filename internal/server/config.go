// Package server provides configuration helpers that define runtime defaults
// and validation for the relay and its WebSocket gateway.
package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"linechat/internal/logger"
)

// GatewayConfig holds the optional WebSocket gateway settings. An empty Addr
// disables the gateway.
type GatewayConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds structured-logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds the relay configuration. Host and port locate the listening
// endpoint; the remaining knobs bound per-connection resource use.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Backlog        int           `yaml:"backlog"`
	ReadBufferSize int           `yaml:"read_buffer_size"`
	MaxLineLength  int           `yaml:"max_line_length"`
	Gateway        GatewayConfig `yaml:"gateway"`
	Logging        LoggingConfig `yaml:"logging"`
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           3000,
		Backlog:        10,
		ReadBufferSize: 1024,
		MaxLineLength:  4096,
		Gateway: GatewayConfig{
			Addr: "",
			AllowedOrigins: []string{
				"http://localhost:8080",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from an optional YAML file, applies
// environment variable overrides, and validates the result. An empty path
// skips the file and starts from defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	sanitize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed >= 0 {
			cfg.Port = parsed
		}
	}
	if addr := os.Getenv("GATEWAY_ADDR"); addr != "" {
		cfg.Gateway.Addr = addr
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Gateway.AllowedOrigins = parseOrigins(origins)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// sanitize replaces zero or negative knobs with their defaults so that a
// sparse config file still yields a workable configuration.
func sanitize(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 10
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = 1024
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = 4096
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks the configuration for values the relay cannot start with.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	ip := net.ParseIP(c.Host)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("host must be an IPv4 address, got %q", c.Host)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if !logger.IsValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Addr returns the configured listening address as host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a loggable summary of the configuration.
func (c *Config) String() string {
	gateway := c.Gateway.Addr
	if gateway == "" {
		gateway = "disabled"
	}
	return fmt.Sprintf("Config{Addr: %s, Gateway: %s, LogLevel: %s}", c.Addr(), gateway, c.Logging.Level)
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
