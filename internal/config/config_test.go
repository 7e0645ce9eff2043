package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "data/monitor.db")
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 6, cfg.Monitor.PollTimeoutSeconds)
	assert.Equal(t, "camera_names.csv", cfg.Monitor.NamesCSV)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camwatch.yaml")
	body := `
server:
  addr: ":9090"
database:
  driver: postgres
monitor:
  poll_workers: 4
nats:
  url: nats://localhost:4222
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "postgres://")
	assert.Equal(t, 4, cfg.Monitor.PollWorkers)
	// Untouched keys keep defaults.
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CAMWATCH_ADDR", ":7070")
	t.Setenv("CAMWATCH_DB_DSN", "file:/tmp/other.db")
	t.Setenv("CAMWATCH_POLL_WORKERS", "2")
	t.Setenv("CAMWATCH_INTERVAL_SECONDS", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "file:/tmp/other.db", cfg.Database.DSN)
	assert.Equal(t, 2, cfg.Monitor.PollWorkers)
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds, "bad int falls back to default")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
