package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finprim/ledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv registers the restore; the variables must be absent, not
	// empty, for envDefault to apply.
	for _, key := range []string{"DATABASE_URL", "REDIS_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "internal/infrastructure/postgres/migrations", cfg.MigrationsPath)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10*time.Second, cfg.BalanceCacheTTL)
	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	assert.Zero(t, cfg.RateLimitRPS, "rate limiting is off unless configured")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_LIMIT_RPS", "50")
	t.Setenv("OUTBOX_BATCH_SIZE", "500")
	t.Setenv("OUTBOX_RETENTION", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, float64(50), cfg.RateLimitRPS)
	assert.Equal(t, 500, cfg.OutboxBatchSize)
	assert.Zero(t, cfg.OutboxRetention, "retention 0 keeps published events forever")
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}
