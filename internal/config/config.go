// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	Limits       LimitsConfig       `yaml:"limits"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type ServerConfig struct {
	Port     int  `yaml:"port"`
	EnableUI bool `yaml:"enable_ui"`
	MaxConns int  `yaml:"max_conns"` // concurrent connection cap, 0 = unlimited
}

// CapabilitiesConfig selects one inference capability per content kind.
type CapabilitiesConfig struct {
	Text  CapabilityConfig `yaml:"text"`
	Image CapabilityConfig `yaml:"image"`
}

type CapabilityConfig struct {
	Provider       string `yaml:"provider"` // openai, huggingface, fake
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"` // base URL for HTTP-level providers
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LimitsConfig bounds accepted payloads before any capability call.
type LimitsConfig struct {
	TextMinChars  int      `yaml:"text_min_chars"`
	TextMaxChars  int      `yaml:"text_max_chars"`
	ImageMaxBytes int64    `yaml:"image_max_bytes"`
	ImageTypes    []string `yaml:"image_types"`
}

// RateLimitConfig controls the per-client sliding-window budget and the
// coarse per-IP throttle in front of the whole API.
type RateLimitConfig struct {
	Requests        int `yaml:"requests"`
	WindowSeconds   int `yaml:"window_seconds"`
	GlobalPerMinute int `yaml:"global_requests_per_minute"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			EnableUI: true,
			MaxConns: 256,
		},
		Capabilities: CapabilitiesConfig{
			Text: CapabilityConfig{
				Provider:       "openai",
				Model:          "gpt-4o-mini",
				TimeoutSeconds: 20,
			},
			Image: CapabilityConfig{
				Provider:       "huggingface",
				Model:          "umm-maybe/AI-image-detector",
				Endpoint:       "https://api-inference.huggingface.co",
				TimeoutSeconds: 30,
			},
		},
		Limits: LimitsConfig{
			TextMinChars:  10,
			TextMaxChars:  10000,
			ImageMaxBytes: 5 << 20,
			ImageTypes: []string{
				"image/jpeg", "image/png", "image/gif",
				"image/webp", "image/bmp", "image/tiff",
			},
		},
		RateLimit: RateLimitConfig{
			Requests:        10,
			WindowSeconds:   60,
			GlobalPerMinute: 120,
		},
		Database: DatabaseConfig{
			Enabled: false,
			Path:    "./data/sift.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run with --generate-config to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# Sift Configuration
# See documentation for all options

server:
  port: 8080
  enable_ui: true
  max_conns: 256

capabilities:
  text:
    provider: openai  # openai or fake
    model: gpt-4o-mini
    api_key: ${OPENAI_API_KEY}
    timeout_seconds: 20

  image:
    provider: huggingface  # huggingface or fake
    model: umm-maybe/AI-image-detector
    api_key: ${HF_API_TOKEN}
    endpoint: https://api-inference.huggingface.co
    timeout_seconds: 30

limits:
  text_min_chars: 10
  text_max_chars: 10000
  image_max_bytes: 5242880  # 5 MiB
  image_types:
    - image/jpeg
    - image/png
    - image/gif
    - image/webp
    - image/bmp
    - image/tiff

rate_limit:
  requests: 10        # per client identity
  window_seconds: 60
  global_requests_per_minute: 120

database:
  enabled: false  # audit log of request metadata only
  path: ./data/sift.db

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if err := validateCapability("text", &c.Capabilities.Text, map[string]bool{"openai": true, "fake": true}); err != nil {
		return err
	}
	if err := validateCapability("image", &c.Capabilities.Image, map[string]bool{"huggingface": true, "fake": true}); err != nil {
		return err
	}

	if c.Limits.TextMinChars < 1 || c.Limits.TextMaxChars < c.Limits.TextMinChars {
		return fmt.Errorf("invalid text length limits: min=%d max=%d", c.Limits.TextMinChars, c.Limits.TextMaxChars)
	}
	if c.Limits.ImageMaxBytes < 1 {
		return fmt.Errorf("invalid image size limit: %d", c.Limits.ImageMaxBytes)
	}
	if len(c.Limits.ImageTypes) == 0 {
		return fmt.Errorf("image type allow-list must not be empty")
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.WindowSeconds < 1 {
		return fmt.Errorf("invalid rate limit: %d requests per %ds", c.RateLimit.Requests, c.RateLimit.WindowSeconds)
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database path is required when the audit store is enabled")
	}

	return nil
}

func validateCapability(kind string, cfg *CapabilityConfig, valid map[string]bool) error {
	if !valid[cfg.Provider] {
		return fmt.Errorf("unsupported %s capability provider: %s", kind, cfg.Provider)
	}
	if cfg.Provider != "fake" && cfg.APIKey == "" {
		return fmt.Errorf("%s capability: API key is required for provider %s", kind, cfg.Provider)
	}
	if cfg.TimeoutSeconds < 1 {
		return fmt.Errorf("%s capability: timeout must be at least 1s", kind)
	}
	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
