package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auticonnect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, BackendCanned, cfg.Mediator.Backend)
	assert.Equal(t, 4096, cfg.MaxInputSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
session:
  backend: redis
  ttl: 10m
  redis:
    addr: redis:6379
    db: 2
store:
  backend: sqlite
  path: /data/auticonnect.db
mediator:
  group_cooldown: 30s
`)
	t.Setenv("AUTICONNECT_SESSION_REDIS_DB", "3")
	t.Setenv("AUTICONNECT_HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
	assert.Equal(t, 3, cfg.Session.Redis.DB)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/data/auticonnect.db", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.Mediator.GroupCooldown)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Session.SweepInterval, cfg.Session.SweepInterval)
}

func TestLoad_ArkFromEnv(t *testing.T) {
	t.Setenv("AUTICONNECT_MEDIATOR_BACKEND", "ark")
	t.Setenv("AUTICONNECT_MEDIATOR_ARK_API_KEY", "secret")
	t.Setenv("AUTICONNECT_MEDIATOR_ARK_MODEL", "ep-123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendArk, cfg.Mediator.Backend)
	assert.Equal(t, "secret", cfg.Mediator.Ark.APIKey)
	assert.Equal(t, "ep-123", cfg.Mediator.Ark.Model)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log: [unclosed"))
	assert.Error(t, err)

	t.Setenv("AUTICONNECT_SESSION_TTL", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
		{"session backend", func(c *Config) { c.Session.Backend = "etcd" }, "unknown session backend"},
		{"redis addr", func(c *Config) { c.Session.Backend = BackendRedis; c.Session.Redis.Addr = "" }, "redis addr"},
		{"session dir", func(c *Config) { c.Session.Backend = BackendFile; c.Session.Dir = "" }, "session dir"},
		{"ttl", func(c *Config) { c.Session.TTL = 0 }, "session ttl"},
		{"sweep", func(c *Config) { c.Session.SweepInterval = -time.Second }, "sweep interval"},
		{"store backend", func(c *Config) { c.Store.Backend = "postgres" }, "unknown store backend"},
		{"sqlite path", func(c *Config) { c.Store.Backend = BackendSQLite; c.Store.Path = "" }, "store path"},
		{"mediator backend", func(c *Config) { c.Mediator.Backend = "gpt" }, "unknown mediator backend"},
		{"ark credentials", func(c *Config) { c.Mediator.Backend = BackendArk }, "api key and model"},
		{"input size", func(c *Config) { c.MaxInputSize = 0 }, "max input size"},
		{"encryption key", func(c *Config) { c.Session.EncryptionKey = "c2hvcnQ=" }, "session encryption key"},
		{"orphan fallback", func(c *Config) { c.Session.FallbackKeys = []string{"x"} }, "require an encryption key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSessionEncryption(t *testing.T) {
	active := base64.StdEncoding.EncodeToString(make([]byte, 32))
	old := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	t.Setenv("AUTICONNECT_SESSION_ENCRYPTION_KEY", active)
	t.Setenv("AUTICONNECT_SESSION_ENCRYPTION_FALLBACK_KEYS", old)

	cfg, err := Load("")
	require.NoError(t, err)
	enc, err := cfg.Session.Encryption()
	require.NoError(t, err)
	require.NotNil(t, enc)
	assert.Len(t, enc.ActiveKey, 32)
	require.Len(t, enc.FallbackKeys, 1)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), enc.FallbackKeys[0])

	enc, err = Default().Session.Encryption()
	require.NoError(t, err)
	assert.Nil(t, enc)
}
