// Package config holds speakeasy's settings and loads them from the
// config file, a .env file and SPEAKEASY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakeasy/internal/audio"
)

// Config is the complete speakeasy configuration.
type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
	Playback PlaybackConfig `yaml:"playback" envPrefix:"PLAYBACK_"`
	Client   ClientConfig   `yaml:"client" envPrefix:"CLIENT_"`
	Relay    RelayConfig    `yaml:"relay" envPrefix:"RELAY_"`
}

// PlaybackConfig configures the local coordinator and audio output.
type PlaybackConfig struct {
	Engine           string        `yaml:"engine" env:"ENGINE"`
	SampleRate       int           `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Channels         int           `yaml:"channels" env:"CHANNELS"`
	Volume           float64       `yaml:"volume" env:"VOLUME"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ErrorRevertDelay time.Duration `yaml:"error_revert_delay" env:"ERROR_REVERT_DELAY"`
}

// ClientConfig configures the connection to a relay.
type ClientConfig struct {
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
}

// RelayConfig configures `speakeasy serve`.
type RelayConfig struct {
	Addr      string        `yaml:"addr" env:"ADDR"`
	Provider  string        `yaml:"provider" env:"PROVIDER"`
	Voice     string        `yaml:"voice" env:"VOICE"`
	APIKey    string        `yaml:"api_key" env:"API_KEY"`
	BaseURL   string        `yaml:"base_url" env:"BASE_URL"`
	RateLimit float64       `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst     int           `yaml:"burst" env:"BURST"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Relay providers.
const (
	ProviderHume = "hume"
	ProviderTone = "tone"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Playback: PlaybackConfig{
			Engine:           string(audio.EngineAuto),
			SampleRate:       48000,
			Channels:         2,
			Volume:           1.0,
			RequestTimeout:   15 * time.Second,
			ErrorRevertDelay: 3 * time.Second,
		},
		Client: ClientConfig{
			Endpoint: "ws://127.0.0.1:8765/ws",
		},
		Relay: RelayConfig{
			Addr:      "127.0.0.1:8765",
			Provider:  ProviderHume,
			RateLimit: 2,
			Burst:     5,
			Timeout:   30 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

func (c PlaybackConfig) Validate() error {
	if _, err := audio.ParseEngineKind(c.Engine); err != nil {
		return err
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be between 8000 and 192000, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.Volume <= 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be greater than 0 and at most 1, got %.2f", c.Volume)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.ErrorRevertDelay <= 0 {
		return errors.New("error revert delay must be positive")
	}
	return nil
}

func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("endpoint must be a ws:// or wss:// URL, got %q", c.Endpoint)
	}
	return nil
}

func (c RelayConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.Provider != ProviderHume && c.Provider != ProviderTone {
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderHume, ProviderTone)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %.2f", c.RateLimit)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", c.Burst)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// EngineOptions returns the audio engine settings.
func (c PlaybackConfig) EngineOptions() audio.EngineOptions {
	return audio.EngineOptions{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		Volume:     c.Volume,
	}
}
