package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvState_Empty(t *testing.T) {
	state := LoadEnvState(MapLookup(nil))
	assert.Empty(t, state.Layer.Agents)
	assert.Nil(t, state.Layer.Cache)
	assert.Nil(t, state.Layer.Logging)
	assert.Nil(t, state.Layer.Defaults)
	assert.Empty(t, state.Warnings)
}

func TestLoadEnvState_AgentValues(t *testing.T) {
	state := LoadEnvState(MapLookup(map[string]string{
		"INTERPEER_CODEX_COMMAND":         "/opt/codex",
		"INTERPEER_CODEX_MODEL":           "gpt-5",
		"INTERPEER_CODEX_MAX_ATTEMPTS":    "4",
		"INTERPEER_CODEX_PROFILE":         "review",
		"INTERPEER_CODEX_EXTRA_ARGS":      "--sandbox  read-only",
		"INTERPEER_FACTORY_OUTPUT_FORMAT": "text",
		"INTERPEER_FACTORY_VERBOSE":       "true",
		"INTERPEER_CLAUDE_MODEL":          "haiku",
	}))
	require.Empty(t, state.Warnings)

	codex := state.Layer.Agents["codex"]
	require.NotNil(t, codex)
	assert.Equal(t, "/opt/codex", *codex.Command)
	assert.Equal(t, "gpt-5", *codex.Model)
	assert.Equal(t, "review", *codex.Profile)
	assert.Equal(t, []string{"--sandbox", "read-only"}, *codex.ExtraArgs)
	require.NotNil(t, codex.Retry)
	assert.Equal(t, 4, *codex.Retry.MaxAttempts)
	assert.Nil(t, codex.Retry.BaseDelayMs)

	factory := state.Layer.Agents["factory"]
	require.NotNil(t, factory)
	assert.Equal(t, "text", *factory.OutputFormat)
	assert.True(t, *factory.Verbose)

	assert.Equal(t, "haiku", *state.Layer.Agents["claude"].Model)
}

func TestLoadEnvState_SettingSources(t *testing.T) {
	state := LoadEnvState(MapLookup(map[string]string{"INTERPEER_CLAUDE_SETTING_SOURCES": ""}))
	require.NotNil(t, state.Layer.Agents["claude"])
	assert.Equal(t, []string{}, *state.Layer.Agents["claude"].SettingSources)

	state = LoadEnvState(MapLookup(map[string]string{"INTERPEER_CLAUDE_SETTING_SOURCES": "user, local"}))
	assert.Equal(t, []string{"user", "local"}, *state.Layer.Agents["claude"].SettingSources)
}

func TestLoadEnvState_GlobalValues(t *testing.T) {
	state := LoadEnvState(MapLookup(map[string]string{
		"INTERPEER_DEFAULT_AGENT":     "codex",
		"INTERPEER_DEFAULT_MODEL":     "o3",
		"INTERPEER_CACHE_ENABLED":     "false",
		"INTERPEER_CACHE_TTL_MS":      "1000",
		"INTERPEER_CACHE_MAX_ENTRIES": "3",
		"INTERPEER_LOG_REDACT":        "1",
		"INTERPEER_LOG_LEVEL":         "debug",
		"INTERPEER_CONFIG_PATH":       "custom.json",
		"INTERPEER_METRICS_ADDR":      ":9090",
		"INTERPEER_TRACE":             "stdout",
	}))
	require.Empty(t, state.Warnings)

	assert.Equal(t, "codex", *state.Layer.Defaults.Agent)
	assert.Equal(t, "o3", *state.Layer.Defaults.Model)
	assert.False(t, *state.Layer.Cache.Enabled)
	assert.Equal(t, 1000, *state.Layer.Cache.TTLMs)
	assert.Equal(t, 3, *state.Layer.Cache.MaxEntries)
	assert.True(t, *state.Layer.Logging.RedactContent)
	assert.Equal(t, "debug", *state.Layer.Logging.Level)
	assert.Equal(t, "custom.json", state.ConfigPath)
	assert.Equal(t, ":9090", state.MetricsAddr)
	assert.Equal(t, "stdout", state.Trace)
}

func TestLoadEnvState_InvalidValuesWarn(t *testing.T) {
	state := LoadEnvState(MapLookup(map[string]string{
		"INTERPEER_CODEX_MAX_ATTEMPTS": "three",
		"INTERPEER_CACHE_ENABLED":      "maybe",
	}))
	require.Len(t, state.Warnings, 2)
	assert.Contains(t, state.Warnings[0], "INTERPEER_CODEX_MAX_ATTEMPTS")
	assert.Contains(t, state.Warnings[1], "INTERPEER_CACHE_ENABLED")
	assert.Nil(t, state.Layer.Agents["codex"])
	assert.Nil(t, state.Layer.Cache)
}

func TestLoadEnvState_EmptyStringIsUnset(t *testing.T) {
	state := LoadEnvState(MapLookup(map[string]string{"INTERPEER_CODEX_MODEL": ""}))
	assert.Nil(t, state.Layer.Agents["codex"])
}
