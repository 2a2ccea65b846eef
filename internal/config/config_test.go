package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
server:
  port: 9090
api_key: sk-test
cors:
  allow_origins:
    - http://localhost:8000
models:
  - id: gpt-4
    created: 1700000000
    owned_by: openai
  - id: gpt-3.5-turbo
    created: 1690000000
    owned_by: openai
strategy:
  name: mirror
stream:
  delay: 10ms
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, []string{"http://localhost:8000"}, cfg.CORS.AllowOrigins)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, "gpt-4", cfg.Models[0].ID)
	assert.Equal(t, StrategyMirror, cfg.Strategy.Name)
	assert.Equal(t, 10*time.Millisecond, cfg.Stream.Delay.Std())
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
models:
  - id: gpt-4
`))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StrategyMirror, cfg.Strategy.Name)
	assert.Zero(t, cfg.Stream.Delay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLMOCK_API_KEY", "sk-from-env")
	t.Setenv("LLMOCK_PORT", "7070")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no models", `server: {port: 8080}`},
		{"empty model id", "models:\n  - id: \"\""},
		{"duplicate model", "models:\n  - id: gpt-4\n  - id: gpt-4"},
		{"unknown strategy", "models:\n  - id: gpt-4\nstrategy:\n  name: quantum"},
		{"proxy without block", "models:\n  - id: gpt-4\nstrategy:\n  name: proxy"},
		{"proxy without base_url", "models:\n  - id: gpt-4\nstrategy:\n  name: proxy\n  proxy: {api_key: k}"},
		{"bad port", "server: {port: 70000}\nmodels:\n  - id: gpt-4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDurationParsing(t *testing.T) {
	_, err := Load(writeConfig(t, "models:\n  - id: gpt-4\nstream:\n  delay: not-a-duration"))
	require.Error(t, err)
}
