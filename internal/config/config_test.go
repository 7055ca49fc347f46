package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
timezone: America/New_York
model:
  name: test-model
  timeout: 5s
agent:
  max_iterations: 4
calendar:
  backend: memory
  seed_file: testdata/seed.yaml
server:
  session_timeout: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.TimeZone)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.Equal(t, "test-model", cfg.Model.Name)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 4, cfg.Agent.MaxIterations)
	assert.Equal(t, BackendMemory, cfg.Calendar.Backend)
	assert.Equal(t, "testdata/seed.yaml", cfg.Calendar.SeedFile)
	assert.Equal(t, 10*time.Minute, cfg.Server.SessionTimeout)

	// untouched keys keep their defaults
	assert.Equal(t, 8, cfg.Agent.MemoryCapacity)
	assert.Equal(t, 30*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Model.BaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "calendar:\n  backend: google\n")
	t.Setenv("SCHEDULER_CALENDAR_BACKEND", "memory")
	t.Setenv("SCHEDULER_MODEL_API_KEY", "secret")
	t.Setenv("SCHEDULER_AGENT_TOOL_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Calendar.Backend)
	assert.Equal(t, "secret", cfg.Model.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Agent.ToolTimeout)
}

func TestLoad_FallbackAPIKeyVariable(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-groq")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-groq", cfg.Model.APIKey)
}

func TestLoad_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Calendar, cfg.Calendar)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timezone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{"backend", func(c *Config) { c.Calendar.Backend = "outlook" }},
		{"iterations", func(c *Config) { c.Agent.MaxIterations = 0 }},
		{"memory", func(c *Config) { c.Agent.MemoryCapacity = 0 }},
		{"timeout", func(c *Config) { c.Agent.BatchToolTimeout = 0 }},
		{"temperature", func(c *Config) { c.Model.Temperature = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
