package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
http:
  address: ":9090"
backend:
  base_url: "http://api.internal:8000"
session:
  token_key: "token"
storage:
  driver: redis
  key_prefix: admin
  ttl_seconds: 3600
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  order_events_topic: order-events
`), 0o600)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "http://api.internal:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "token", cfg.Session.TokenKey)
	assert.Equal(t, "user_role", cfg.Session.RoleKey)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, time.Hour, cfg.Storage.TTL())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "order-events", cfg.Kafka.OrderEventsTopic)
	assert.Equal(t, "wingquest-notifier", cfg.Kafka.GroupID)
	assert.Equal(t, 60*time.Second, cfg.Chat.StreamTimeout())
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, 3, cfg.Trips.RecentLimit)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "wq", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=wq sslmode=disable", d.DSN())
}
