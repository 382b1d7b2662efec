package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ResilienceEnv is a standalone, viper-free set of resilience tunables for
// entrypoints that don't want a full Config — the outbox publisher's
// own process and tests that only touch the retry/breaker layer.
type ResilienceEnv struct {
	RetryOptimisticLockMaxElapsed string `env:"RETRY_OPTIMISTIC_LOCK_MAX_ELAPSED" envDefault:"300ms"`
	RetryTransientMaxElapsed      string `env:"RETRY_TRANSIENT_MAX_ELAPSED" envDefault:"10s"`

	BreakerFailureThreshold uint32 `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerTimeoutSeconds   int    `env:"BREAKER_TIMEOUT_SECONDS" envDefault:"30"`

	OutboxPollIntervalSeconds int `env:"OUTBOX_POLL_INTERVAL_SECONDS" envDefault:"2"`
	OutboxBatchSize           int `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxMaxAttempts         int `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"5"`
}

// LoadResilienceEnv parses ResilienceEnv straight from the process
// environment, skipping viper/config-file lookup entirely.
func LoadResilienceEnv() (*ResilienceEnv, error) {
	cfg := &ResilienceEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing resilience environment: %w", err)
	}
	return cfg, nil
}
