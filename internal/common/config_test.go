package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_URL", "postgres://u:p@localhost/db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
database:
  driver: sqlite
  dsn: file:test.db
llm:
  model: from-yaml
  timeout: 5s
jobs:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_MODEL", "from-env")
	t.Setenv("DB_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.False(t, cfg.EnrichmentEnabled())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Backend = "redis" }},
		{name: "valid", mutate: func(c *Config) {}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Database.DSN = "postgres://localhost/db"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
