package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tracker?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "file://db/migrations", cfg.DB.MigrationsPath)
	assert.Equal(t, AuditStoreMongo, cfg.Audit.Store)
	assert.Equal(t, 90*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, "audit_logs", cfg.Mongo.AuditCollection)
	assert.Empty(t, cfg.Kafka.BootstrapServers)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tracker")
	t.Setenv("AUDIT_STORE", "memory")
	t.Setenv("AUDIT_RETENTION", "0")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuditStoreMemory, cfg.Audit.Store)
	assert.Zero(t, cfg.Audit.Retention)
	assert.Equal(t, "localhost:9092", cfg.Kafka.BootstrapServers)
}

func TestLoadRejectsInvalidAuditSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tracker")

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("AUDIT_STORE", "redis")
		_, err := Load()
		assert.ErrorContains(t, err, "AUDIT_STORE")
	})

	t.Run("negative retention", func(t *testing.T) {
		t.Setenv("AUDIT_RETENTION", "-1h")
		_, err := Load()
		assert.ErrorContains(t, err, "AUDIT_RETENTION")
	})
}
