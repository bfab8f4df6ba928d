package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `
api:
  port: 8080
records:
  base_url: "http://localhost:7777"
oracle:
  provider: openai
  model: gpt-4o-mini
  temperature: 0.3
log:
  level: info
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "http://localhost:7777", cfg.Records.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Oracle.Model)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, `
api:
  port: 8080
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7777", cfg.Records.BaseURL)
	assert.Equal(t, "10s", cfg.Records.Timeout)
	assert.Equal(t, 1024, cfg.Oracle.MaxTokens)
	assert.Equal(t, "系統使用者", cfg.Agent.DefaultRequester)
	assert.Equal(t, "採購專員", cfg.Agent.DefaultOfficer)
}

func TestLoadConfigEnvKey(t *testing.T) {
	t.Setenv("TEST_ORACLE_KEY", "sk-test")
	path := writeTempConfig(t, `
oracle:
  api_key: "${TEST_ORACLE_KEY}"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}
