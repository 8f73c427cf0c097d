package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func validConfig() *Config {
	return &Config{
		Port:              "8000",
		Env:               "development",
		LogLevel:          "info",
		ServiceName:       "clinic",
		RateLimitRPS:      100,
		RateLimitBurst:    200,
		RequestTimeout:    15 * time.Second,
		TracingSampleRate: 0.1,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.RateLimitBurst != 200 {
		t.Errorf("expected default burst 200, got %d", cfg.RateLimitBurst)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("expected default timeout 15s, got %s", cfg.RequestTimeout)
	}
	if cfg.BodyLimit != "1M" {
		t.Errorf("expected default body limit 1M, got %q", cfg.BodyLimit)
	}
	if cfg.TracingEnabled {
		t.Error("expected tracing to be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_ENDPOINT", "collector:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if !cfg.IsProduction() || cfg.IsDev() {
		t.Errorf("expected production env, got %q", cfg.Env)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %s", cfg.RequestTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %q", cfg.CORSOrigins)
	}
	tc := cfg.Tracing()
	if !tc.Enabled || tc.Endpoint != "collector:4318" || tc.ServiceName != "clinic" {
		t.Errorf("unexpected tracing config %+v", tc)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero rps", func(c *Config) { c.RateLimitRPS = 0 }},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"sample rate above one", func(c *Config) { c.TracingSampleRate = 1.5 }},
		{"negative sample rate", func(c *Config) { c.TracingSampleRate = -0.1 }},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestConfig_Level(t *testing.T) {
	c := &Config{LogLevel: "DEBUG"}
	if c.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug, got %s", c.Level())
	}
	c.LogLevel = ""
	if c.Level() != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", c.Level())
	}
}
