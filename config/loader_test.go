package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Default config ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "postgres", cfg.GraphStore.Driver)
	assert.Equal(t, "localhost", cfg.GraphStore.Host)
	assert.Equal(t, 5432, cfg.GraphStore.Port)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, 50, cfg.Domain.MinSize)
	assert.Equal(t, 500, cfg.Domain.MaxSize)
	assert.Equal(t, 5, cfg.Domain.KMin)
	assert.Equal(t, 15, cfg.Domain.KMax)
	assert.InDelta(t, 0.5, cfg.Domain.AdmitThreshold, 0.001)

	assert.Equal(t, 0.5, cfg.Search.ParagraphSimThreshold)
	assert.Equal(t, 0.25, cfg.Search.RNERadius)
	assert.Equal(t, 20, cfg.Search.RNEMaxNodes)
	assert.Equal(t, 60, cfg.Search.RRFK)
	assert.Equal(t, 0.5, cfg.Search.AppendixPenalty)
	assert.Equal(t, 0.6, cfg.Search.CollabConfidenceThreshold)

	assert.Equal(t, 3, cfg.Coordinator.DispatchN)
	assert.Equal(t, 30*time.Second, cfg.Coordinator.Deadline)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

// --- Loader ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 50, cfg.Domain.MinSize)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

domain:
  min_size: 80
  max_size: 600
  k_min: 4
  k_max: 20

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

log:
  level: "debug"
  format: "console"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, 80, cfg.Domain.MinSize)
	assert.Equal(t, 600, cfg.Domain.MaxSize)
	assert.Equal(t, 4, cfg.Domain.KMin)
	assert.Equal(t, 20, cfg.Domain.KMax)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	envVars := map[string]string{
		"KORLAW_SERVER_HTTP_PORT": "7777",
		"KORLAW_DOMAIN_MIN_SIZE":  "70",
		"KORLAW_DOMAIN_MAX_SIZE":  "700",
		"KORLAW_REDIS_ADDR":       "env-redis:6379",
		"KORLAW_LOG_LEVEL":        "warn",
	}

	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, 70, cfg.Domain.MinSize)
	assert.Equal(t, 700, cfg.Domain.MaxSize)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
domain:
  min_size: 80
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	os.Setenv("KORLAW_SERVER_HTTP_PORT", "9999")
	os.Setenv("KORLAW_DOMAIN_MIN_SIZE", "90")
	defer func() {
		os.Unsetenv("KORLAW_SERVER_HTTP_PORT")
		os.Unsetenv("KORLAW_DOMAIN_MIN_SIZE")
	}()

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 90, cfg.Domain.MinSize)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	os.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	defer os.Unsetenv("MYAPP_SERVER_HTTP_PORT")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	os.Setenv("KORLAW_SERVER_HTTP_PORT", "80")
	defer os.Unsetenv("KORLAW_SERVER_HTTP_PORT")

	_, err := NewLoader().WithValidator(validator).Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/non/existent/path/config.yaml").Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	_, err = NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

// --- Config.Validate ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}, wantErr: false},
		{name: "invalid HTTP port (negative)", modify: func(c *Config) { c.Server.HTTPPort = -1 }, wantErr: true},
		{name: "invalid HTTP port (too large)", modify: func(c *Config) { c.Server.HTTPPort = 70000 }, wantErr: true},
		{name: "min size not below max size", modify: func(c *Config) { c.Domain.MinSize = c.Domain.MaxSize }, wantErr: true},
		{name: "k_max below k_min", modify: func(c *Config) { c.Domain.KMax = c.Domain.KMin - 1 }, wantErr: true},
		{name: "rrf_k not positive", modify: func(c *Config) { c.Search.RRFK = 0 }, wantErr: true},
		{name: "embedding dimensions not positive", modify: func(c *Config) { c.Embedding.Dimensions = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGraphStoreConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   GraphStoreConfig
		expected string
	}{
		{
			name: "postgres DSN",
			config: GraphStoreConfig{
				Driver: "postgres", Host: "localhost", Port: 5432,
				User: "user", Password: "pass", Name: "dbname", SSLMode: "disable",
			},
			expected: "host=localhost port=5432 user=user password=pass dbname=dbname sslmode=disable",
		},
		{
			name:     "sqlite DSN",
			config:   GraphStoreConfig{Driver: "sqlite", Name: "/path/to/db.sqlite"},
			expected: "/path/to/db.sqlite",
		},
		{
			name:     "unknown driver",
			config:   GraphStoreConfig{Driver: "unknown"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

// --- MustLoad ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8080
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	err := os.WriteFile(configPath, []byte("invalid: [yaml"), 0644)
	require.NoError(t, err)

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	os.Setenv("KORLAW_LOG_LEVEL", "debug")
	defer os.Unsetenv("KORLAW_LOG_LEVEL")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
