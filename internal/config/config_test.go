package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ShippedFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Outbox.Interval)
	require.NotNil(t, cfg.Outbox.MaxRetries)
	assert.Equal(t, 3, *cfg.Outbox.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.NotEmpty(t, cfg.Categories)
	assert.Equal(t, "local", cfg.Render.Engine)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "postgres:\n  dsn: host=db\n"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(5<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.Equal(t, 3, *cfg.Outbox.MaxRetries)
	assert.Equal(t, 20, cfg.Outbox.MaxBatchesPerTick)
	assert.Equal(t, time.Hour, cfg.Render.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BLOGLITE_POSTGRES_DSN", "host=env")
	t.Setenv("BLOGLITE_JWT_SECRET", "s3cret")
	t.Setenv("BLOGLITE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BLOGLITE_OUTBOX_INTERVAL", "250ms")
	t.Setenv("POSTGRES_PASSWORD", "pw")

	cfg, err := Load(writeConfig(t, "postgres:\n  dsn: host=file\nauth:\n  jwt_secret: file\n"))
	require.NoError(t, err)
	assert.Equal(t, "host=env password=pw", cfg.Postgres.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.Interval)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: 1\n"))
	assert.ErrorContains(t, err, "postgres.dsn")

	_, err = Load(writeConfig(t, "postgres:\n  dsn: x\nrender:\n  engine: pandoc\n"))
	assert.ErrorContains(t, err, "render.engine")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ZeroRetriesIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "postgres:\n  dsn: x\noutbox:\n  max_retries: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Outbox.MaxRetries)
	assert.Zero(t, *cfg.Outbox.MaxRetries)

	_, err = Load(writeConfig(t, "postgres:\n  dsn: x\noutbox:\n  max_retries: -1\n"))
	assert.ErrorContains(t, err, "max_retries")
}
