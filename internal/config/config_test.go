package config

import (
	"testing"
	"time"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("DB_NAME", "sigmmar.db")
	t.Setenv("LOGIN_HASH_FIELDS", " log_contrasena, ,otro ")

	cfg := Load()
	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %q", cfg.Port)
	}
	if cfg.DBQueryTimeout != 5*time.Second {
		t.Errorf("expected 5s query timeout, got %v", cfg.DBQueryTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS origin, got %v", cfg.CORSOrigins)
	}
	if len(cfg.LoginHashFields) != 2 || cfg.LoginHashFields[0] != "log_contrasena" || cfg.LoginHashFields[1] != "otro" {
		t.Errorf("unexpected hash fields %v", cfg.LoginHashFields)
	}
}

func TestLoadMySQL(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverMySQL)
	t.Setenv("DB_NAME", "Sigmmar")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("APP_PORT", "8080")

	cfg := Load()
	if cfg.DBHost != "db" || cfg.DBUser != "root" || cfg.DBPort != "3307" {
		t.Errorf("unexpected db settings: %+v", cfg)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: -3, RefillInterval: 0, TTL: time.Second}.normalize()
	if c.Capacity != 1 || c.RefillTokens != 1 {
		t.Errorf("expected clamped capacity/refill, got %d/%d", c.Capacity, c.RefillTokens)
	}
	if c.RefillInterval != time.Second {
		t.Errorf("expected 1s refill interval, got %v", c.RefillInterval)
	}
	if c.TTL != 5*time.Second {
		t.Errorf("expected TTL raised to 5s, got %v", c.TTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")

	if envBool("X_BOOL", true) {
		t.Error("expected off to parse as false")
	}
	if envInt("X_INT", 7) != 7 {
		t.Error("expected default for unparsable int")
	}
	if envDur("X_DUR", 0) != 250*time.Millisecond {
		t.Error("expected 250ms")
	}
	if m := parseMethods("get, head,,"); !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Errorf("unexpected methods %v", m)
	}
}

func TestLoadMediaAndEventsDefaults(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	m := LoadMediaConfig()
	if m.Backend != MediaLocal || m.Dir != "media" || m.MaxBytes != "10M" {
		t.Errorf("unexpected media defaults %+v", m)
	}
	ev := LoadEventsConfig()
	if ev.URL != "amqp://u:p@broker:5672/" {
		t.Errorf("expected AMQP_URL fallback, got %q", ev.URL)
	}
	if ev.Enabled || ev.Queue != "sigmmar.changes" {
		t.Errorf("unexpected events defaults %+v", ev)
	}
}
