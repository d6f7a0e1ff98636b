package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/prompt"
)

type fakeAdapter struct{ id string }

func (f fakeAdapter) ID() string { return f.id }
func (f fakeAdapter) Review(context.Context, Invocation) (*domain.ReviewResult, error) {
	return &domain.ReviewResult{Agent: f.id}, nil
}

func TestNew_SelectsAdapter(t *testing.T) {
	cfg := config.Defaults()
	assert.IsType(t, &ClaudeAdapter{}, New(cfg.Agents[config.AgentClaude]))
	assert.IsType(t, &CodexAdapter{}, New(cfg.Agents[config.AgentCodex]))
	assert.IsType(t, &FactoryAdapter{}, New(cfg.Agents[config.AgentFactory]))
	assert.IsType(t, &CustomAdapter{}, New(config.AgentConfig{ID: "gemini", Command: "gemini"}))
}

func TestRegistry_Lookup(t *testing.T) {
	cfg := config.Defaults()
	cfg.Agents["gemini"] = config.AgentConfig{ID: "gemini", Kind: config.KindCLI, Command: "gemini"}
	r := NewRegistry(cfg)

	assert.Equal(t, []string{"claude_code", "codex_cli", "factory_droid", "gemini"}, r.IDs())

	ac, err := r.Config("codex")
	require.NoError(t, err)
	assert.Equal(t, "codex_cli", ac.ID)

	a, err := r.Adapter("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini", a.ID())

	_, err = r.Config("nope")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
	_, err = r.Adapter("nope")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(config.Defaults())
	r.Register(config.AgentConfig{ID: "fake", Kind: config.KindSDK}, fakeAdapter{id: "fake"})
	r.Register(config.AgentConfig{ID: "fake", Kind: config.KindSDK}, fakeAdapter{id: "fake"})

	assert.Len(t, r.IDs(), 4)
	a, err := r.Adapter("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", a.ID())
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "user", flatten(prompt.Bundle{User: "user"}))
	assert.Equal(t, "sys\n\nuser", flatten(prompt.Bundle{System: "sys\n", User: "user"}))
}
