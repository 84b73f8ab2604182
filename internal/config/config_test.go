package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8081", cfg.AdminServer.Addr())
	assert.False(t, cfg.Checkout.ReserveStock)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goshop.yaml")
	body := `
database:
  driver: sqlite
  dsn: file.db
checkout:
  reserve_stock: true
redis:
  ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("GOSHOP_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file.db", cfg.Database.DSN)
	assert.True(t, cfg.Checkout.ReserveStock)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	// 未覆盖的字段保持默认
	assert.Equal(t, "order_placed", cfg.RabbitMQ.Queue)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Isolation = "chaos"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultConfig().Validate())
}

func TestServerAddr_EmptyHost(t *testing.T) {
	s := ServerConfig{Port: 1234}
	assert.Equal(t, "0.0.0.0:1234", s.Addr())
}
