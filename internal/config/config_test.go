package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://kb:kb@localhost:5432/kb?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 16, cfg.DB.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.True(t, cfg.DB.MigrationsEnabled)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "kb", cfg.Bus.TopicPrefix)
	assert.Equal(t, 256, cfg.Bus.BufferSize)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "/tmp/kb.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("BUS_TOPIC_PREFIX", "opencti")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "opencti", cfg.Bus.TopicPrefix)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 30*time.Second, cfg.DB.ConnMaxIdleTime)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}
