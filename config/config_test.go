package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, 3, cfg.TxRetries)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_TX_TIMEOUT", "750ms")
	t.Setenv("DB_TX_RETRIES", "5")
	t.Setenv("PUBLIC_BASE_URL", "https://floor.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := LoadConfig()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.TxTimeout)
	assert.Equal(t, 5, cfg.TxRetries)
	assert.Equal(t, "https://floor.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("DB_TX_RETRIES", "lots")
	t.Setenv("DB_TX_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 3, cfg.TxRetries)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB(&Config{DBDriver: "sqlite", DBSource: "file:cfgtest?mode=memory&cache=shared"})
	assert.NoError(t, err)

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
