package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/bitacora/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bitacora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
database:
  url: postgres://localhost/bitacora
auth:
  jwt_secret: s3cret
dispatch:
  interval: 500ms
log:
  format: text
`)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/bitacora", cfg.Database.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.Interval)
	assert.Equal(t, "text", cfg.Log.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, config.DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, config.DefaultNATSSubjectPrefix, cfg.NATS.SubjectPrefix)
	assert.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.LoadFromFile(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.Database.URL = "postgres://localhost/bitacora"
		cfg.Auth.JWTSecret = "s3cret"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing database url", func(c *config.Config) { c.Database.URL = "" }},
		{"missing secret", func(c *config.Config) { c.Auth.JWTSecret = "" }},
		{"missing port", func(c *config.Config) { c.Server.Port = "" }},
		{"pool bounds", func(c *config.Config) { c.Database.MaxConns = 1; c.Database.MinConns = 4 }},
		{"negative interval", func(c *config.Config) { c.Dispatch.Interval = -time.Second }},
		{"unknown format", func(c *config.Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
