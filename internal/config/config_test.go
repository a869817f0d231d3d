package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadReadsEnvironmentOverDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("S3_BUCKET", "listing-images")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IsDevelopment() {
		t.Error("production env should not be development")
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Expected 30s window, got %s", cfg.RateLimit.Window)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.Server.AllowedOrigins)
	}
	if cfg.Storage.Bucket != "listing-images" {
		t.Errorf("Expected bucket listing-images, got %s", cfg.Storage.Bucket)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("Expected default sslmode disable, got %s", cfg.Database.SSLMode)
	}
}

func TestRedisEnabledOnlyWithHost(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Error("empty redis config should be disabled")
	}
	r := RedisConfig{Host: "cache", Port: "6380"}
	if !r.Enabled() {
		t.Error("redis with host should be enabled")
	}
	if r.Addr() != "cache:6380" {
		t.Errorf("Expected cache:6380, got %s", r.Addr())
	}
}
