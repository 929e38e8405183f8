// Package config loads the progress agent's configuration from the
// environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel string
	HTTPAddr string
	Env      string

	// Delivery sink: ACTIVITY_URL for HTTP, or NATS_URL to publish straight
	// to the event bus. One of the two is required.
	ActivityURL string
	NATSURL     string
	NATSSubject string

	// Outbound credential.
	AuthURL      string
	RefreshToken string
	StaticToken  string

	// Inbound producer auth for the local HTTP surface. Empty disables it
	// (trusted localhost deployments).
	JWTSecret string

	// Snapshot storage, best available wins: redis > postgres > file.
	RedisDSN    string
	DatabaseURL string
	StatePath   string
	OwnerID     string

	FlushInterval   time.Duration
	DeliveryTimeout time.Duration
	ProbeInterval   time.Duration
	ProbeTimeout    time.Duration
	BatchThreshold  int
	MaxAttempts     int
	Threshold       float64
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel: envStr("LOG_LEVEL", "info"),
		HTTPAddr: envStr("HTTP_ADDR", ":8089"),
		Env:      envStr("ENV", "development"),

		ActivityURL: envStr("ACTIVITY_URL", ""),
		NATSURL:     envStr("NATS_URL", ""),
		NATSSubject: envStr("NATS_SUBJECT", ""),

		AuthURL:      envStr("AUTH_URL", ""),
		RefreshToken: envStr("AUTH_REFRESH_TOKEN", ""),
		StaticToken:  envStr("ACTIVITY_TOKEN", ""),

		JWTSecret: envStr("JWT_SECRET", ""),

		RedisDSN:    envStr("REDIS_DSN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		StatePath:   envStr("STATE_PATH", ""),
		OwnerID:     envStr("OWNER_ID", "local"),

		FlushInterval:   envDuration("FLUSH_INTERVAL", 30*time.Second),
		DeliveryTimeout: envDuration("DELIVERY_TIMEOUT", 10*time.Second),
		ProbeInterval:   envDuration("PROBE_INTERVAL", 15*time.Second),
		ProbeTimeout:    envDuration("PROBE_TIMEOUT", 2*time.Second),
		BatchThreshold:  envInt("BATCH_THRESHOLD", 10),
		MaxAttempts:     envInt("MAX_ATTEMPTS", 3),
		Threshold:       envFloat("MATERIALITY_THRESHOLD", 1.0),
	}

	if cfg.ActivityURL == "" && cfg.NATSURL == "" {
		return Config{}, errors.New("ACTIVITY_URL or NATS_URL is required")
	}
	if cfg.AuthURL != "" && cfg.RefreshToken == "" {
		return Config{}, errors.New("AUTH_REFRESH_TOKEN is required when AUTH_URL is set")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
