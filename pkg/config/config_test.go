package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
kafka:
  brokers: ["localhost:9092"]
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "redis", c.Storage.Backend)
	assert.Equal(t, "inputs/", c.Pipeline.InputPrefix)
	assert.Equal(t, "processed/hashes/", c.Pipeline.HashesPrefix)
	assert.Equal(t, 3, c.Enrichment.MaxAttempts)
	assert.Equal(t, 2*time.Second, c.Enrichment.BaseDelay)
	assert.Equal(t, 3000, c.Enrichment.MaxTokens)
	assert.InDelta(t, 0.3, c.Enrichment.Temperature, 1e-6)
	assert.Equal(t, "fail", c.Enrichment.Fallback)
	assert.True(t, c.Kafka.Consumer.Enabled)
	assert.Equal(t, "info", c.Log.Level)
}

func TestParseKeepsExplicitFalse(t *testing.T) {
	c, err := Parse([]byte(minimalYAML + `
metrics:
  enabled: false
`))
	require.NoError(t, err)
	assert.False(t, c.Metrics.Enabled)
}

func TestParseRejectsUnknownFallback(t *testing.T) {
	_, err := Parse([]byte(minimalYAML + `
enrichment:
  fallback: guess
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fallback")
}

func TestParseRequiresBrokers(t *testing.T) {
	_, err := Parse([]byte("environment: test\n"))
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("STORAGE_BACKEND", "fs")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "deepseek", c.Enrichment.Provider)
	assert.Equal(t, "fs", c.Storage.Backend)
}
