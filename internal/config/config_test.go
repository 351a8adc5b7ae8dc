package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BHASHINI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.True(t, cfg.Transports.HTTP.Enabled)
	assert.Equal(t, 8080, cfg.Transports.HTTP.Port)
	assert.False(t, cfg.Transports.GRPC.Enabled)
	assert.Equal(t, "bhashini", cfg.Transform.Backend)
	assert.Equal(t, "passthrough", cfg.Transform.OnFailure)
	assert.Equal(t, 15*time.Second, cfg.Transform.Timeout)
	assert.Equal(t, "both", cfg.Letters.DefaultOutput)
	assert.True(t, cfg.Speech.Enabled)
	assert.Equal(t, "te-IN", cfg.Speech.DefaultLanguage)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTimeout)

	// The unset secret reference must not survive as a literal credential.
	assert.Empty(t, cfg.Transform.Bhashini.APIKey)
	assert.False(t, cfg.Transform.RemoteConfigured())
}

func TestLoadResolvesSecretFromEnvironment(t *testing.T) {
	t.Setenv("BHASHINI_API_KEY", "secret-token")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Transform.Bhashini.APIKey)
	assert.True(t, cfg.Transform.RemoteConfigured())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEKHA_TRANSPORTS_HTTP_PORT", "9090")
	t.Setenv("LEKHA_TRANSPORTS_GRPC_ENABLED", "true")
	t.Setenv("LEKHA_TRANSFORM_BACKEND", "local")
	t.Setenv("LEKHA_TRANSFORM_ON_FAILURE", "fallback")
	t.Setenv("LEKHA_TRANSFORM_TIMEOUT", "3s")
	t.Setenv("LEKHA_SPEECH_ENABLED", "false")
	t.Setenv("LEKHA_LOGGING_FORMAT", "console")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Transports.HTTP.Port)
	assert.True(t, cfg.Transports.GRPC.Enabled)
	assert.Equal(t, "local", cfg.Transform.Backend)
	assert.Equal(t, "fallback", cfg.Transform.OnFailure)
	assert.Equal(t, 3*time.Second, cfg.Transform.Timeout)
	assert.False(t, cfg.Speech.Enabled)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("LEKHA_TEST_KEY", "from-file-ref")

	path := filepath.Join(t.TempDir(), "lekha.yaml")
	content := `
transform:
  backend: bhashini
  on_failure: fallback
  bhashini:
    endpoint: http://translator.internal/pipeline
    api_key: ${LEKHA_TEST_KEY}
  local:
    leads:
      en: "Please note."
letters:
  default_output: en
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://translator.internal/pipeline", cfg.Transform.Bhashini.Endpoint)
	assert.Equal(t, "from-file-ref", cfg.Transform.Bhashini.APIKey)
	assert.Equal(t, "fallback", cfg.Transform.OnFailure)
	assert.Equal(t, "Please note.", cfg.Transform.Local.Leads["en"])
	assert.Equal(t, "en", cfg.Letters.DefaultOutput)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{HealthPort: 8081},
			Transports: TransportsConfig{HTTP: HTTPConfig{Enabled: true, Port: 8080}},
			Transform:  TransformConfig{Backend: "local", OnFailure: "passthrough", Timeout: time.Second},
			Letters:    LettersConfig{DefaultOutput: "both"},
			Sessions:   SessionsConfig{IdleTimeout: time.Minute},
			Logging:    LoggingConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad health port", func(c *Config) { c.Server.HealthPort = 0 }, "server.health_port"},
		{"bad http port", func(c *Config) { c.Transports.HTTP.Port = 70000 }, "transports.http.port"},
		{"disabled grpc ignores port", func(c *Config) { c.Transports.GRPC.Port = -1 }, ""},
		{"enabled grpc checks port", func(c *Config) { c.Transports.GRPC = GRPCConfig{Enabled: true} }, "transports.grpc.port"},
		{"unknown backend", func(c *Config) { c.Transform.Backend = "google" }, "transform.backend"},
		{"unknown failure policy", func(c *Config) { c.Transform.OnFailure = "retry" }, "transform.on_failure"},
		{"zero timeout", func(c *Config) { c.Transform.Timeout = 0 }, "transform.timeout"},
		{"bad default output", func(c *Config) { c.Letters.DefaultOutput = "hi" }, "letters.default_output"},
		{"zero idle timeout", func(c *Config) { c.Sessions.IdleTimeout = 0 }, "sessions.idle_timeout"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewHandlerFormats(t *testing.T) {
	for _, format := range []string{"json", "text", "console"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(&buf, LoggingConfig{Level: "debug", Format: format}))
			logger.Debug("letter composed", "language", "te")

			out := buf.String()
			assert.Contains(t, out, "letter composed")
			assert.Contains(t, out, "te")
			assert.NotContains(t, out, "\x1b[", "colour must be off for non-terminal writers")
		})
	}
}

func TestNewHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, LoggingConfig{Level: "warn", Format: "text"}))
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
