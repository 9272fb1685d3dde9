package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Search.Store)
	assert.Equal(t, "reds", cfg.Search.Namespace)
	assert.Equal(t, "english", cfg.Search.Language)
	assert.Equal(t, 1, cfg.Redis.BatchAttempts)
	assert.Equal(t, "document-events", cfg.Kafka.Topics.DocumentEvents)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte(`
server:
  port: 9000
redis:
  addr: redis:6380
  transactional: true
  breaker:
    resetTimeout: 5s
search:
  store: memory
  namespace: books
  maxWindow: 50
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("PS_SEARCH_NAMESPACE", "films")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Transactional)
	assert.Equal(t, 5*time.Second, cfg.Redis.Breaker.ResetTimeout)
	assert.Equal(t, 5, cfg.Redis.Breaker.FailureThreshold)
	assert.Equal(t, "memory", cfg.Search.Store)
	assert.Equal(t, "films", cfg.Search.Namespace)
	assert.EqualValues(t, 50, cfg.Search.MaxWindow)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("PS_SEARCH_STORE", "cassandra")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.store")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
