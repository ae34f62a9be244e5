package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"addr":       "http.addr",
	"static-dir": "http.static_dir",
}

// providerKeyEnv names the conventional API key variable of each provider.
var providerKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGroq:   "GROQ_API_KEY",
}

// Load reads configuration from path, if set, then applies environment
// overrides and any changed flags in flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.static_dir", cfg.HTTP.StaticDir)
	v.SetDefault("http.cors_origins", cfg.HTTP.CORSOrigins)
	v.SetDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout)
	v.SetDefault("session.honor_pacing", cfg.Session.HonorPacing)
	v.SetDefault("session.pace_scale", cfg.Session.PaceScale)
	v.SetDefault("session.max_message_bytes", cfg.Session.MaxMessageBytes)
	v.SetDefault("session.write_timeout", cfg.Session.WriteTimeout)
	v.SetDefault("live.provider", cfg.Live.Provider)
	v.SetDefault("live.api_key", cfg.Live.APIKey)
	v.SetDefault("live.model", cfg.Live.Model)
	v.SetDefault("live.base_url", cfg.Live.BaseURL)
	v.SetDefault("live.instructions", cfg.Live.Instructions)
	v.SetDefault("live.completion_message", cfg.Live.CompletionMessage)
	v.SetDefault("live.timeout", cfg.Live.Timeout)
	v.SetDefault("live.breaker.max_failures", cfg.Live.Breaker.MaxFailures)
	v.SetDefault("live.breaker.open_timeout", cfg.Live.Breaker.OpenTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, err
				}
			}
		}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("live.provider")))
	keyEnv, ok := providerKeyEnv[provider]
	if !ok {
		return Config{}, fmt.Errorf("unsupported live.provider %q", provider)
	}
	if err := v.BindEnv("live.api_key", EnvPrefix+"_LIVE_API_KEY", keyEnv); err != nil {
		return Config{}, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Live.Provider = provider
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var errs []error
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if cfg.Session.PaceScale < 0 {
		errs = append(errs, fmt.Errorf("session.pace_scale must not be negative, got %v", cfg.Session.PaceScale))
	}
	if cfg.Session.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("session.max_message_bytes must be positive, got %d", cfg.Session.MaxMessageBytes))
	}
	if cfg.Live.Timeout < 0 {
		errs = append(errs, fmt.Errorf("live.timeout must not be negative, got %s", cfg.Live.Timeout))
	}
	return errors.Join(errs...)
}

// WriteDefault writes the default config to path and returns it.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		return "", errors.New("config path is required")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
