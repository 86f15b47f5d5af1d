package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"agora"`
	HTTPPort     string   `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN  string   `env:"POSTGRES_DSN"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`

	EntityLockTimeout  time.Duration `env:"ENTITY_LOCK_TIMEOUT" envDefault:"2s"`
	ConflictRetries    int           `env:"CONFLICT_RETRIES" envDefault:"5"`
	RetryBackoff       time.Duration `env:"RETRY_BACKOFF" envDefault:"25ms"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	EnableThresholdConsumer bool `env:"ENABLE_THRESHOLD_CONSUMER" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment config: %w", err)
	}

	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agora"
	}
	cfg.HTTPPort = strings.TrimSpace(cfg.HTTPPort)
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	brokers := make([]string, 0, len(cfg.KafkaBrokers))
	for _, value := range cfg.KafkaBrokers {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	cfg.KafkaBrokers = brokers

	return cfg, nil
}
