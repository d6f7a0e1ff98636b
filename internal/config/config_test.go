package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/interpeer/internal/retry"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, AgentClaude, cfg.Defaults.Agent)
	assert.Equal(t, []string{AgentClaude, AgentCodex, AgentFactory}, cfg.AgentIDs())
	assert.Equal(t, "sonnet", cfg.Agents[AgentClaude].Model)
	assert.Equal(t, "gpt-5-codex", cfg.Agents[AgentCodex].Model)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Agents[AgentFactory].Model)
	assert.Equal(t, retry.Settings{MaxAttempts: 2, BaseDelayMs: 1000}, cfg.Agents[AgentCodex].Retry)
	assert.Equal(t, CacheConfig{Enabled: true, TTLMs: 600000, MaxEntries: 50}, cfg.Cache)
	assert.True(t, cfg.Logging.Enabled)
	assert.False(t, cfg.Logging.RedactContent)
}

func TestReserved(t *testing.T) {
	for _, name := range []string{"claude", "codex", "factory", "claude_code", "codex_cli", "factory_droid"} {
		assert.True(t, IsReserved(name), name)
	}
	assert.False(t, IsReserved("gemini"))
	assert.Equal(t, AgentCodex, NormalizeAgentID("codex"))
	assert.Equal(t, "gemini", NormalizeAgentID("gemini"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ResolvedConfig)
		wantErr string
	}{
		{"zero attempts", func(c *ResolvedConfig) {
			ac := c.Agents[AgentCodex]
			ac.Retry.MaxAttempts = 0
			c.Agents[AgentCodex] = ac
		}, "agents.codex_cli.retry.maxAttempts must be >= 1"},
		{"negative delay", func(c *ResolvedConfig) {
			ac := c.Agents[AgentFactory]
			ac.Retry.BaseDelayMs = -1
			c.Agents[AgentFactory] = ac
		}, "agents.factory_droid.retry.baseDelayMs must be >= 0"},
		{"bad output format", func(c *ResolvedConfig) {
			ac := c.Agents[AgentFactory]
			ac.OutputFormat = "xml"
			c.Agents[AgentFactory] = ac
		}, "outputFormat must be json or text"},
		{"negative ttl", func(c *ResolvedConfig) { c.Cache.TTLMs = -5 }, "cache.ttlMs must be >= 0"},
		{"zero entries", func(c *ResolvedConfig) { c.Cache.MaxEntries = 0 }, "cache.maxEntries must be >= 1"},
		{"unknown default", func(c *ResolvedConfig) { c.Defaults.Agent = "gemini" }, "defaults.agent must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	a := Defaults()
	b := a.clone()
	ac := b.Agents[AgentClaude]
	ac.SettingSources[0] = "mutated"
	b.Agents[AgentClaude] = ac

	assert.Equal(t, "user", a.Agents[AgentClaude].SettingSources[0])
}
