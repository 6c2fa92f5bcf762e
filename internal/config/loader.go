package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPEAKEASY_"

// SetDefaults registers DefaultConfig with v so `config` output and
// flag bindings see the same values.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("playback.engine", d.Playback.Engine)
	v.SetDefault("playback.sample_rate", d.Playback.SampleRate)
	v.SetDefault("playback.channels", d.Playback.Channels)
	v.SetDefault("playback.volume", d.Playback.Volume)
	v.SetDefault("playback.request_timeout", d.Playback.RequestTimeout)
	v.SetDefault("playback.error_revert_delay", d.Playback.ErrorRevertDelay)

	v.SetDefault("client.endpoint", d.Client.Endpoint)

	v.SetDefault("relay.addr", d.Relay.Addr)
	v.SetDefault("relay.provider", d.Relay.Provider)
	v.SetDefault("relay.rate_limit", d.Relay.RateLimit)
	v.SetDefault("relay.burst", d.Relay.Burst)
	v.SetDefault("relay.timeout", d.Relay.Timeout)
}

// LoadFromViper overlays values set in v onto the defaults.
func LoadFromViper(v *viper.Viper) Config {
	cfg := DefaultConfig()

	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}

	// Playback settings
	if v.IsSet("playback.engine") {
		cfg.Playback.Engine = v.GetString("playback.engine")
	}
	if v.IsSet("playback.sample_rate") {
		cfg.Playback.SampleRate = v.GetInt("playback.sample_rate")
	}
	if v.IsSet("playback.channels") {
		cfg.Playback.Channels = v.GetInt("playback.channels")
	}
	if v.IsSet("playback.volume") {
		cfg.Playback.Volume = v.GetFloat64("playback.volume")
	}
	if v.IsSet("playback.request_timeout") {
		cfg.Playback.RequestTimeout = v.GetDuration("playback.request_timeout")
	}
	if v.IsSet("playback.error_revert_delay") {
		cfg.Playback.ErrorRevertDelay = v.GetDuration("playback.error_revert_delay")
	}

	// Client settings
	if v.IsSet("client.endpoint") {
		cfg.Client.Endpoint = v.GetString("client.endpoint")
	}

	// Relay settings
	if v.IsSet("relay.addr") {
		cfg.Relay.Addr = v.GetString("relay.addr")
	}
	if v.IsSet("relay.provider") {
		cfg.Relay.Provider = v.GetString("relay.provider")
	}
	if v.IsSet("relay.voice") {
		cfg.Relay.Voice = v.GetString("relay.voice")
	}
	if v.IsSet("relay.api_key") {
		cfg.Relay.APIKey = v.GetString("relay.api_key")
	}
	if v.IsSet("relay.base_url") {
		cfg.Relay.BaseURL = v.GetString("relay.base_url")
	}
	if v.IsSet("relay.rate_limit") {
		cfg.Relay.RateLimit = v.GetFloat64("relay.rate_limit")
	}
	if v.IsSet("relay.burst") {
		cfg.Relay.Burst = v.GetInt("relay.burst")
	}
	if v.IsSet("relay.timeout") {
		cfg.Relay.Timeout = v.GetDuration("relay.timeout")
	}

	return cfg
}

// ApplyEnv loads .env from the working directory if present, then applies
// SPEAKEASY_* variables. HUME_API_KEY is honoured when no key is set.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to read .env: %w", err)
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}

	if c.Relay.APIKey == "" {
		c.Relay.APIKey = os.Getenv("HUME_API_KEY")
	}
	return nil
}

// Load resolves the full configuration: defaults, then v, then the
// environment. The result is validated.
func Load(v *viper.Viper) (Config, error) {
	cfg := LoadFromViper(v)
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
