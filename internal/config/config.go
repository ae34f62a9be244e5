// Package config loads the server configuration from defaults, an optional
// yaml file, the environment and command line flags.
package config

import "time"

// Supported live providers.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// EnvPrefix namespaces environment overrides, e.g. SKETCHPAD_HTTP_ADDR.
const EnvPrefix = "SKETCHPAD"

// Config is the top-level application configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Live    LiveConfig    `mapstructure:"live" yaml:"live"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	StaticDir       string        `mapstructure:"static_dir" yaml:"static_dir"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SessionConfig configures every websocket session.
type SessionConfig struct {
	HonorPacing     bool          `mapstructure:"honor_pacing" yaml:"honor_pacing"`
	PaceScale       float64       `mapstructure:"pace_scale" yaml:"pace_scale"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LiveConfig configures the live text generator. An empty APIKey disables it.
type LiveConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Model             string        `mapstructure:"model" yaml:"model"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Instructions      string        `mapstructure:"instructions" yaml:"instructions"`
	CompletionMessage string        `mapstructure:"completion_message" yaml:"completion_message"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Breaker           BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the generator.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures" yaml:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`
}

// Enabled reports whether a live generator should be built.
func (c LiveConfig) Enabled() bool {
	return c.APIKey != ""
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			StaticDir:       "public",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			HonorPacing:     true,
			PaceScale:       1.0,
			MaxMessageBytes: 64 * 1024,
			WriteTimeout:    10 * time.Second,
		},
		Live: LiveConfig{
			Provider:          ProviderOpenAI,
			CompletionMessage: "Done.",
			Timeout:           60 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures: 3,
				OpenTimeout: 30 * time.Second,
			},
		},
	}
}
