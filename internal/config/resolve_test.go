package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/interpeer/internal/retry"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestResolve_NilLayersYieldDefaults(t *testing.T) {
	cfg, warnings := Resolve(nil, File{}, Overrides{})
	assert.Empty(t, warnings)
	assert.Equal(t, Defaults(), cfg)
}

func TestResolve_EnvBeatsFile(t *testing.T) {
	file := &File{Agents: map[string]*FileAgent{"claude": {Model: strPtr("opus")}}}
	env := File{Agents: map[string]*FileAgent{"claude": {Model: strPtr("haiku")}}}

	cfg, _ := Resolve(file, env, Overrides{})
	assert.Equal(t, "haiku", cfg.Agents[AgentClaude].Model)

	cfg, _ = Resolve(file, File{}, Overrides{})
	assert.Equal(t, "opus", cfg.Agents[AgentClaude].Model)
}

func TestResolve_RetryMergesKeyByKey(t *testing.T) {
	file := &File{Agents: map[string]*FileAgent{
		"codex": {Retry: &FileRetry{MaxAttempts: intPtr(5)}},
	}}
	env := File{Agents: map[string]*FileAgent{
		"codex": {Retry: &FileRetry{BaseDelayMs: intPtr(10)}},
	}}

	cfg, _ := Resolve(file, env, Overrides{})
	assert.Equal(t, retry.Settings{MaxAttempts: 5, BaseDelayMs: 10}, cfg.Agents[AgentCodex].Retry)
	assert.Equal(t, DefaultRetry, cfg.Agents[AgentFactory].Retry)
}

func TestResolve_BuiltinAcceptsKeyOrID(t *testing.T) {
	file := &File{Agents: map[string]*FileAgent{
		"factory_droid": {Command: strPtr("/usr/local/bin/droid")},
	}}
	cfg, _ := Resolve(file, File{}, Overrides{})
	assert.Equal(t, "/usr/local/bin/droid", cfg.Agents[AgentFactory].Command)
	assert.Len(t, cfg.Agents, 3)
}

func TestResolve_CustomAgents(t *testing.T) {
	file := &File{Agents: map[string]*FileAgent{
		"gemini": {
			Command: strPtr("gemini"),
			Model:   strPtr("gemini-2.5-pro"),
			Args:    []string{"-m", "{model}"},
			Retry:   &FileRetry{BaseDelayMs: intPtr(0)},
		},
		"broken": {Model: strPtr("x")},
	}}

	cfg, warnings := Resolve(file, File{}, Overrides{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"broken"`)

	ac, ok := cfg.Agent("gemini")
	require.True(t, ok)
	assert.Equal(t, KindCLI, ac.Kind)
	assert.False(t, ac.Builtin)
	assert.Equal(t, []string{"-m", "{model}"}, ac.Args)
	assert.Equal(t, retry.Settings{MaxAttempts: 2, BaseDelayMs: 0}, ac.Retry)
	assert.Equal(t, []string{AgentClaude, AgentCodex, AgentFactory, "gemini"}, cfg.AgentIDs())
}

func TestResolve_EnvCannotCreateAgents(t *testing.T) {
	env := File{Agents: map[string]*FileAgent{"ghost": {Command: strPtr("ghost")}}}
	cfg, warnings := Resolve(nil, env, Overrides{})
	assert.Len(t, warnings, 1)
	_, ok := cfg.Agents["ghost"]
	assert.False(t, ok)
}

func TestResolve_DefaultsAndOverrides(t *testing.T) {
	file := &File{Defaults: &FileDefaults{Agent: strPtr("codex"), Model: strPtr("o3")}}
	env := File{Defaults: &FileDefaults{Model: strPtr("o4-mini")}}

	cfg, _ := Resolve(file, env, Overrides{})
	assert.Equal(t, AgentCodex, cfg.Defaults.Agent)
	assert.Equal(t, "o4-mini", cfg.Defaults.Model)

	cfg, _ = Resolve(file, env, Overrides{Agent: "factory", Model: "opus"})
	assert.Equal(t, AgentFactory, cfg.Defaults.Agent)
	assert.Equal(t, "opus", cfg.Defaults.Model)
}

func TestResolve_SectionsMergeFieldByField(t *testing.T) {
	file := &File{
		Cache:   &FileCache{TTLMs: intPtr(5)},
		Logging: &FileLogging{RedactContent: boolPtr(true)},
	}
	env := File{Cache: &FileCache{Enabled: boolPtr(false)}}

	cfg, _ := Resolve(file, env, Overrides{})
	assert.Equal(t, CacheConfig{Enabled: false, TTLMs: 5, MaxEntries: 50}, cfg.Cache)
	assert.True(t, cfg.Logging.Enabled)
	assert.True(t, cfg.Logging.RedactContent)
}

func TestResolve_EmptySettingSourcesIsolates(t *testing.T) {
	file := &File{Agents: map[string]*FileAgent{"claude": {SettingSources: &[]string{}}}}
	cfg, _ := Resolve(file, File{}, Overrides{})
	assert.NotNil(t, cfg.Agents[AgentClaude].SettingSources)
	assert.Empty(t, cfg.Agents[AgentClaude].SettingSources)
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	sources := []string{"user"}
	file := &File{Agents: map[string]*FileAgent{"claude": {SettingSources: &sources}}}
	cfg, _ := Resolve(file, File{}, Overrides{})

	ac := cfg.Agents[AgentClaude]
	ac.SettingSources[0] = "changed"
	assert.Equal(t, "user", sources[0])
}
