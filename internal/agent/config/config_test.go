package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresSink(t *testing.T) {
	t.Setenv("ACTIVITY_URL", "")
	t.Setenv("NATS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without a delivery sink configured")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACTIVITY_URL", "https://activity.learn.example.com/v1/progress")
	t.Setenv("FLUSH_INTERVAL", "")
	t.Setenv("BATCH_THRESHOLD", "")
	t.Setenv("MAX_ATTEMPTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FlushInterval != 30*time.Second {
		t.Fatalf("default flush interval: %v", cfg.FlushInterval)
	}
	if cfg.BatchThreshold != 10 || cfg.MaxAttempts != 3 {
		t.Fatalf("defaults: threshold=%d attempts=%d", cfg.BatchThreshold, cfg.MaxAttempts)
	}
	if cfg.Threshold != 1.0 {
		t.Fatalf("default materiality threshold: %v", cfg.Threshold)
	}
	if cfg.IsProd() {
		t.Fatal("development by default")
	}
}

func TestLoad_RefreshTokenRequiredWithAuthURL(t *testing.T) {
	t.Setenv("ACTIVITY_URL", "https://activity.learn.example.com/v1/progress")
	t.Setenv("AUTH_URL", "https://auth.learn.example.com/v1/token")
	t.Setenv("AUTH_REFRESH_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("AUTH_URL without AUTH_REFRESH_TOKEN should fail")
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("ACTIVITY_URL", "https://activity.learn.example.com/v1/progress")
	t.Setenv("FLUSH_INTERVAL", "garbage")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FlushInterval != 30*time.Second {
		t.Fatalf("bad duration should fall back to default, got %v", cfg.FlushInterval)
	}
}
