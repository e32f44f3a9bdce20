package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/avana/avana/internal/extract"
)

// Config is the main configuration structure
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"` // Prometheus metrics configuration
	Logging LoggingConfig `yaml:"logging"`
}

// ExtractConfig contains selection defaults
type ExtractConfig struct {
	MaxPerDomain  int      `yaml:"max_per_domain"`  // Default: 5, range 1-200
	Keywords      []string `yaml:"keywords"`        // Role keywords, matched as substrings of the local part
	MaxInputBytes int64    `yaml:"max_input_bytes"` // Max accepted request body (default: 10MB)
}

// APIConfig contains HTTP API settings
type APIConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	APIKey         string        `yaml:"api_key"`
	APIKeyHash     string        `yaml:"api_key_hash"`     // bcrypt hash, alternative to api_key
	MaxHeaderBytes int           `yaml:"max_header_bytes"` // Max HTTP header size (default: 1MB)
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // HTTP read timeout (default: 30s)
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration `yaml:"idle_timeout"`     // HTTP idle timeout (default: 60s)
	AllowedIPs     []string      `yaml:"allowed_ips"`      // IP addresses/CIDRs allowed to access API (empty = allow all)
	CORSOrigins    []string      `yaml:"cors_origins"`     // Browser origins allowed to call the API (empty = CORS disabled)
	TrustedProxies []string      `yaml:"trusted_proxies"`  // Proxies whose X-Forwarded-For/X-Real-IP are honored
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled        bool     `yaml:"enabled"`
	ListenAddr     string   `yaml:"listen_addr"`     // Default: :9090
	Path           string   `yaml:"path"`            // Default: /metrics
	AllowedIPs     []string `yaml:"allowed_ips"`     // IP addresses/CIDRs allowed to access metrics
	TrustedProxies []string `yaml:"trusted_proxies"` // Proxies whose X-Forwarded-For/X-Real-IP are honored
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Extract.MaxPerDomain == 0 {
		c.Extract.MaxPerDomain = extract.DefaultMaxPerDomain
	}
	// An explicit empty list in YAML disables keyword matching
	if c.Extract.Keywords == nil {
		c.Extract.Keywords = append([]string(nil), extract.DefaultKeywords...)
	}
	if c.Extract.MaxInputBytes == 0 {
		c.Extract.MaxInputBytes = 10 * 1024 * 1024 // 10MB
	}

	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.MaxHeaderBytes == 0 {
		c.API.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	// Metrics defaults
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	opts := extract.Options{MaxPerDomain: c.Extract.MaxPerDomain}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("extract.max_per_domain: %w", err)
	}

	if c.Extract.MaxInputBytes < 0 {
		return fmt.Errorf("extract.max_input_bytes must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if err := c.validateAPIKey(); err != nil {
		return err
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

// validateAPIKey validates API key configuration
func (c *Config) validateAPIKey() error {
	if c.API.APIKey != "" && c.API.APIKeyHash != "" {
		return fmt.Errorf("cannot use both api.api_key and api.api_key_hash")
	}

	if c.API.APIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.API.APIKeyHash)); err != nil {
			return fmt.Errorf("invalid api.api_key_hash: %w", err)
		}
	}

	return nil
}

// HasAuth returns true if API key authentication is configured
func (c *APIConfig) HasAuth() bool {
	return c.APIKey != "" || c.APIKeyHash != ""
}

// ExtractOptions returns the configured selection defaults
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		MaxPerDomain: c.Extract.MaxPerDomain,
		Keywords:     append([]string(nil), c.Extract.Keywords...),
	}.Normalize()
}
