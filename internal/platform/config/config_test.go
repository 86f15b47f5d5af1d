package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "agora" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.HTTPPort)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("expected default broker, got %v", cfg.KafkaBrokers)
	}
	if cfg.EntityLockTimeout != 2*time.Second {
		t.Fatalf("expected 2s lock timeout, got %s", cfg.EntityLockTimeout)
	}
	if !cfg.EnableThresholdConsumer {
		t.Fatalf("threshold consumer should default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "agora-staging")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,")
	t.Setenv("ENTITY_LOCK_TIMEOUT", "500ms")
	t.Setenv("CONFLICT_RETRIES", "3")
	t.Setenv("ENABLE_THRESHOLD_CONSUMER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "agora-staging" {
		t.Fatalf("service name override lost, got %q", cfg.ServiceName)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.EntityLockTimeout != 500*time.Millisecond {
		t.Fatalf("lock timeout override lost, got %s", cfg.EntityLockTimeout)
	}
	if cfg.ConflictRetries != 3 {
		t.Fatalf("retries override lost, got %d", cfg.ConflictRetries)
	}
	if cfg.EnableThresholdConsumer {
		t.Fatalf("threshold consumer flag override lost")
	}
}
