package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.ServerURL = "http://localhost:8000"
	cfg.WebSocketURL = "ws://localhost:8000/ws"
	cfg.Token = "tok"
	return cfg
}

func TestDefault_IsValidOnceEndpointsSet(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.PageSize != 50 {
		t.Errorf("default page size = %d, want 50", cfg.PageSize)
	}
	if cfg.ReconnectAttempts != 5 {
		t.Errorf("default reconnect attempts = %d, want 5", cfg.ReconnectAttempts)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing server url", func(c *Config) { c.ServerURL = "" }, "SERVER_URL"},
		{"missing websocket url", func(c *Config) { c.WebSocketURL = "" }, "WEBSOCKET_URL"},
		{"zero handshake timeout", func(c *Config) { c.HandshakeTimeout = 0 }, "handshake"},
		{"zero reconnect delay", func(c *Config) { c.ReconnectDelay = 0 }, "reconnect delay"},
		{"negative attempts", func(c *Config) { c.ReconnectAttempts = -1 }, "reconnect attempts"},
		{"zero typing ttl", func(c *Config) { c.TypingTTL = 0 }, "typing"},
		{"zero poll period", func(c *Config) { c.NotifyPollPeriod = 0 }, "poll"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "page size"},
		{"oversized page", func(c *Config) { c.PageSize = 500 }, "page size"},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "request timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_URL", "http://backend:8000")
	t.Setenv("WEBSOCKET_URL", "ws://backend:8000/ws")
	t.Setenv("TOKEN", "tok-env")
	t.Setenv("RECONNECT_ATTEMPTS", "9")
	t.Setenv("TYPING_TTL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://backend:8000" {
		t.Errorf("server url = %s", cfg.ServerURL)
	}
	if cfg.ReconnectAttempts != 9 {
		t.Errorf("reconnect attempts = %d", cfg.ReconnectAttempts)
	}
	if cfg.TypingTTL != 2*time.Second {
		t.Errorf("typing ttl = %s", cfg.TypingTTL)
	}
	if cfg.NotifyPollPeriod != 30*time.Second {
		t.Errorf("poll period default lost: %s", cfg.NotifyPollPeriod)
	}
}

func TestLoad_MissingEndpointsFails(t *testing.T) {
	t.Setenv("SERVER_URL", "")
	t.Setenv("WEBSOCKET_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without endpoints")
	}
}
