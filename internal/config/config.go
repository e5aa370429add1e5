package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the messaging client. Values come from the
// environment (optionally a .env file) with working defaults for everything
// except the backend endpoints and token.
type Config struct {
	ServerURL    string `mapstructure:"SERVER_URL"`
	WebSocketURL string `mapstructure:"WEBSOCKET_URL"`
	Token        string `mapstructure:"TOKEN"`

	HandshakeTimeout  time.Duration `mapstructure:"HANDSHAKE_TIMEOUT"`
	ReconnectDelay    time.Duration `mapstructure:"RECONNECT_DELAY"`
	ReconnectAttempts int           `mapstructure:"RECONNECT_ATTEMPTS"`

	TypingTTL        time.Duration `mapstructure:"TYPING_TTL"`
	NotifyPollPeriod time.Duration `mapstructure:"NOTIFY_POLL_PERIOD"`
	PageSize         int           `mapstructure:"PAGE_SIZE"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("HANDSHAKE_TIMEOUT", "10s")
	v.SetDefault("RECONNECT_DELAY", "3s")
	v.SetDefault("RECONNECT_ATTEMPTS", 5)
	v.SetDefault("TYPING_TTL", "5s")
	v.SetDefault("NOTIFY_POLL_PERIOD", "30s")
	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("SERVER_URL")
	v.BindEnv("WEBSOCKET_URL")
	v.BindEnv("TOKEN")
	v.BindEnv("HANDSHAKE_TIMEOUT")
	v.BindEnv("RECONNECT_DELAY")
	v.BindEnv("RECONNECT_ATTEMPTS")
	v.BindEnv("TYPING_TTL")
	v.BindEnv("NOTIFY_POLL_PERIOD")
	v.BindEnv("PAGE_SIZE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("LOG_LEVEL")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every tunable at its default and the
// endpoints unset. Used by tests and by callers that inject endpoints
// programmatically.
func Default() *Config {
	return &Config{
		HandshakeTimeout:  10 * time.Second,
		ReconnectDelay:    3 * time.Second,
		ReconnectAttempts: 5,
		TypingTTL:         5 * time.Second,
		NotifyPollPeriod:  30 * time.Second,
		PageSize:          50,
		RequestTimeout:    15 * time.Second,
		LogLevel:          "info",
	}
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}
	if c.WebSocketURL == "" {
		return fmt.Errorf("WEBSOCKET_URL is required")
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake timeout must be positive")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}
	if c.TypingTTL <= 0 {
		return fmt.Errorf("typing TTL must be positive")
	}
	if c.NotifyPollPeriod <= 0 {
		return fmt.Errorf("notification poll period must be positive")
	}
	if c.PageSize <= 0 || c.PageSize > 200 {
		return fmt.Errorf("page size must be between 1 and 200")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}
