package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	toml := `
ServicePort = 9090
SiteTitle = "ASDM Test"
LogLevel = "debug"

[Session]
TTL = "1h"

[Storage]
Backend = "local"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "test.toml"), []byte(toml), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONFIG_NAME", "test")
	t.Setenv(envRedisHost, "redis.local")
	t.Setenv(envRedisPort, "6380")
	t.Setenv(envMinIOUseSSL, "true")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServicePort)
	assert.Equal(t, "0.0.0.0", cfg.ServiceHost)
	assert.Equal(t, "ASDM Test", cfg.SiteTitle)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "sessionid", cfg.Session.CookieName)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "redis.local", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "asdm-documents", cfg.MinIO.Bucket)
}

func TestNewConfig_BadRedisPort(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("ServicePort = 1\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONFIG_NAME", "")
	t.Setenv(envRedisPort, "not-a-port")

	_, err = NewConfig()
	assert.Error(t, err)
}
