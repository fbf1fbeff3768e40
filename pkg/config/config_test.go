package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 10, cfg.Lock.TTLSeconds)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Redis.Addr, "sin REDIS_ADDR se usa el bloqueo en proceso")
}

func TestLoad_DesdeVariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOCK_WAIT_MS", "250")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, int64(250), cfg.Lock.Wait().Milliseconds())
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	assert.ErrorContains(t, err, "sqlite")
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "reco", Password: "p@ss:w/rd", DBName: "reco", SSLMode: "disable"}
	assert.Equal(t, "postgres://reco:p%40ss%3Aw%2Frd@db:5432/reco?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://u:p@host/db"
	assert.Equal(t, "postgresql://u:p@host/db", c.ConnectionString())
}
