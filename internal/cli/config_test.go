package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxjar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: file-key
sandbox: true
timeout: 12s
max_retries: 2
cache:
  redis_addr: localhost:6379
  ttl: 1h
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "taxjar:cache:", cfg.Cache.Prefix, "unset keys keep defaults")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxjar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1, 2"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "file-key"
	cfg.APIURL = "https://file.example/v2"

	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"TAXJAR_API_KEY":    "env-key",
		"TAXJAR_API_URL":    "",
		"TAXJAR_REDIS_ADDR": "redis:6379",
		"TAXJAR_SANDBOX":    "true",
		"TAXJAR_TIMEOUT":    "3s",
	})))

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://file.example/v2", cfg.APIURL, "empty env values are ignored")
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"TAXJAR_SANDBOX": "maybe"})))
	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"TAXJAR_TIMEOUT": "soon"})))
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.APIKey = "k"
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"no API key":       func(c *Config) { c.APIKey = "" },
		"negative retries": func(c *Config) { c.MaxRetries = -1 },
		"zero timeout":     func(c *Config) { c.Timeout = 0 },
		"cache ttl":        func(c *Config) { c.Cache.RedisAddr = "localhost:6379"; c.Cache.TTL = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg.Sandbox = true
	cfg.MaxRetries = 2
	cfg.Cache.RedisAddr = "localhost:6379"

	logger, sync := newLogger(false)
	defer sync()

	client, closeClient, err := newClient(cfg, logger)
	require.NoError(t, err)
	defer closeClient()
	assert.Equal(t, "https://api.sandbox.taxjar.com/v2", client.APIURL())

	cfg.APIURL = "ftp://nowhere"
	_, _, err = newClient(cfg, logger)
	assert.Error(t, err)
}
