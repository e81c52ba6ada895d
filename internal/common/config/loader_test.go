package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: notifyhub
database:
  postgres:
    host: localhost
    database: notifyhub
    user: app
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 256, cfg.Dispatch.QueueSize)
	assert.Equal(t, "redis", cfg.Dispatch.Channel)
	assert.Equal(t, "session:online:", cfg.Sessions.KeyPrefix)
	assert.Equal(t, 1800, cfg.Sessions.TTL)
	assert.Equal(t, "notifications", cfg.Search.Index)
	assert.Equal(t, ":8080", cfg.API.Address)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
}

func TestLoadFromFile_MissingPostgresHost(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    database: notifyhub
    user: app
  redis:
    address: localhost:6379
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.postgres.host")
}

func TestLoadFromFile_SNSChannelNeedsRegion(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: notifyhub
    user: app
  redis:
    address: localhost:6379
dispatch:
  channel: sns
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sns_region")
}

func TestLoadFromFile_InvalidChannel(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: notifyhub
    user: app
  redis:
    address: localhost:6379
dispatch:
  channel: carrier-pigeon
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.channel")
}

func TestLoadFromFile_SearchEnabledNeedsAddresses(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: notifyhub
    user: app
  redis:
    address: localhost:6379
search:
  enabled: true
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elasticsearch")
}

func TestGetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, User: "app", Password: "secret",
		Database: "notifyhub", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=secret dbname=notifyhub sslmode=disable",
		cfg.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
