package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Currency != "usd" {
		t.Errorf("Currency = %q", cfg.Currency)
	}
	if cfg.IdempotencyBucket != 5*time.Minute {
		t.Errorf("IdempotencyBucket = %s", cfg.IdempotencyBucket)
	}
	if cfg.SyncStatusCacheTTL != 30*time.Second {
		t.Errorf("SyncStatusCacheTTL = %s", cfg.SyncStatusCacheTTL)
	}
	if cfg.EmailQueueBatchSize != 50 {
		t.Errorf("EmailQueueBatchSize = %d", cfg.EmailQueueBatchSize)
	}
	if cfg.VerifyOneTimePrices {
		t.Error("VerifyOneTimePrices should default off")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example,https://admin.shop.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("IDEMPOTENCY_BUCKET", "1m")
	t.Setenv("VERIFY_ONE_TIME_PRICES", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.shop.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %f", cfg.RateLimitRPS)
	}
	if cfg.IdempotencyBucket != time.Minute {
		t.Errorf("IdempotencyBucket = %s", cfg.IdempotencyBucket)
	}
	if !cfg.VerifyOneTimePrices {
		t.Error("VerifyOneTimePrices = false")
	}
}

func TestFromEnvBadValue(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	if _, err := FromEnv(); err == nil {
		t.Fatal("want parse error for a malformed duration")
	}
}
