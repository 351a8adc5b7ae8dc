// Package config handles loading and validating the lekha configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the lekha daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Transform  TransformConfig  `mapstructure:"transform"`
	Letters    LettersConfig    `mapstructure:"letters"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Sessions   SessionsConfig   `mapstructure:"sessions"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the REST transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TransformConfig selects and configures the text transformer.
type TransformConfig struct {
	Backend   string         `mapstructure:"backend"` // "bhashini" or "local"
	Timeout   time.Duration  `mapstructure:"timeout"`
	OnFailure string         `mapstructure:"on_failure"` // "passthrough" or "fallback"
	Bhashini  BhashiniConfig `mapstructure:"bhashini"`
	Local     LocalConfig    `mapstructure:"local"`
}

// BhashiniConfig holds the remote translation pipeline settings.
// APIKey is a server-side secret; it is never returned to clients.
type BhashiniConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// LocalConfig overrides the deterministic fallback sentences.
// Both maps are keyed by language code ("te", "en").
type LocalConfig struct {
	Leads    map[string]string `mapstructure:"leads"`
	Closings map[string]string `mapstructure:"closings"`
}

// LettersConfig controls letter rendering.
type LettersConfig struct {
	TemplatesFile string `mapstructure:"templates_file"` // optional YAML replacing the built-in tables
	DefaultOutput string `mapstructure:"default_output"` // te, en, both
}

// SpeechConfig describes the browser speech capability.
type SpeechConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	DefaultLanguage string `mapstructure:"default_language"` // BCP-47, e.g. "te-IN"
}

// SessionsConfig controls per-tab controller lifetime.
type SessionsConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text, console
}

// RemoteConfigured reports whether a remote translation backend can be used.
func (c TransformConfig) RemoteConfigured() bool {
	return c.Backend == "bhashini" && c.Bhashini.Endpoint != "" && c.Bhashini.APIKey != ""
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./lekha.yaml, ./configs/lekha.yaml, /etc/lekha/lekha.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transform.backend", "bhashini")
	v.SetDefault("transform.timeout", 15*time.Second)
	v.SetDefault("transform.on_failure", "passthrough")
	v.SetDefault("transform.bhashini.endpoint", "https://dhruva-api.bhashini.gov.in/services/inference/pipeline")
	v.SetDefault("transform.bhashini.api_key", "${BHASHINI_API_KEY}")
	v.SetDefault("letters.templates_file", "")
	v.SetDefault("letters.default_output", "both")
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.default_language", "te-IN")
	v.SetDefault("sessions.idle_timeout", 30*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lekha")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lekha")
	}

	// Environment variables: LEKHA_SERVER_HEALTH_PORT, LEKHA_TRANSFORM_BACKEND, etc.
	v.SetEnvPrefix("LEKHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${BHASHINI_API_KEY}")
	cfg.Transform.Bhashini.APIKey = resolveEnvRef(cfg.Transform.Bhashini.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveEnvRef replaces a "${VAR_NAME}" value with the corresponding env var.
// An unset variable resolves to the empty string so that an unexpanded
// reference is never mistaken for a real credential.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if err := validPort("server.health_port", c.Server.HealthPort); err != nil {
		return err
	}
	if c.Transports.HTTP.Enabled {
		if err := validPort("transports.http.port", c.Transports.HTTP.Port); err != nil {
			return err
		}
	}
	if c.Transports.GRPC.Enabled {
		if err := validPort("transports.grpc.port", c.Transports.GRPC.Port); err != nil {
			return err
		}
	}
	switch c.Transform.Backend {
	case "bhashini", "local":
	default:
		return fmt.Errorf("transform.backend must be one of bhashini|local, got %q", c.Transform.Backend)
	}
	switch c.Transform.OnFailure {
	case "passthrough", "fallback":
	default:
		return fmt.Errorf("transform.on_failure must be one of passthrough|fallback, got %q", c.Transform.OnFailure)
	}
	if c.Transform.Timeout <= 0 {
		return errors.New("transform.timeout must be positive")
	}
	switch c.Letters.DefaultOutput {
	case "te", "en", "both":
	default:
		return fmt.Errorf("letters.default_output must be one of te|en|both, got %q", c.Letters.DefaultOutput)
	}
	if c.Sessions.IdleTimeout <= 0 {
		return errors.New("sessions.idle_timeout must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("logging.format must be one of json|text|console, got %q", c.Logging.Format)
	}
	return nil
}

func validPort(key string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", key)
	}
	return nil
}
