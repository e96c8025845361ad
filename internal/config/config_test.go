package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "acme_warehouse", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warehouse.orders", cfg.Kafka.OrdersTopic)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.False(t, cfg.Features.EnableCaching)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_API_KEY", "from-env")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("FEATURES_ENABLE_CACHING", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Features.EnableCaching)
	assert.Equal(t, "from-env", cfg.Auth.APIKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse.yaml")
	content := []byte(`
server:
  port: 7000
db:
  name: inventory
auth:
  api_key: file-key
features:
  enable_order_events: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "inventory", cfg.Database.Name)
	assert.Equal(t, "file-key", cfg.Auth.APIKey)
	assert.True(t, cfg.Features.EnableOrderEvents)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("AUTH_API_KEY", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("API_KEY", "secret")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "acme",
		Password: "pw",
		Name:     "acme_warehouse",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=acme password=pw dbname=acme_warehouse sslmode=disable"
	if got := d.ConnectionString(); got != expected {
		t.Errorf("ConnectionString() = %q, want %q", got, expected)
	}
}
