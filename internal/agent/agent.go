package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/prompt"
)

// Invocation is a single call to an agent.
type Invocation struct {
	// Model is the model id to request; empty uses the CLI's own default.
	Model  string
	Prompt prompt.Bundle
	// WorkDir is the project root the agent runs in.
	WorkDir string
	// Stderr, when set, receives diagnostic output lines from the agent.
	Stderr func(line string)
}

// Adapter runs one review against one agent.
type Adapter interface {
	// ID returns the tool-facing agent id.
	ID() string
	// Review runs the prompt and returns the agent's response. Text may be
	// empty; callers decide how to present an empty review.
	Review(ctx context.Context, inv Invocation) (*domain.ReviewResult, error)
}

// New creates the adapter for ac.
func New(ac config.AgentConfig) Adapter {
	switch {
	case ac.Builtin && ac.ID == config.AgentClaude:
		return NewClaudeAdapter(ac)
	case ac.Builtin && ac.ID == config.AgentCodex:
		return NewCodexAdapter(ac)
	case ac.Builtin && ac.ID == config.AgentFactory:
		return NewFactoryAdapter(ac)
	default:
		return NewCustomAdapter(ac)
	}
}

// Registry maps agent ids to adapter definitions.
type Registry struct {
	configs  map[string]config.AgentConfig
	adapters map[string]Adapter
	ids      []string
}

// NewRegistry builds adapters for every agent in cfg.
func NewRegistry(cfg config.ResolvedConfig) *Registry {
	r := &Registry{
		configs:  make(map[string]config.AgentConfig, len(cfg.Agents)),
		adapters: make(map[string]Adapter, len(cfg.Agents)),
		ids:      cfg.AgentIDs(),
	}
	for _, id := range r.ids {
		ac := cfg.Agents[id]
		r.configs[id] = ac
		r.adapters[id] = New(ac)
	}
	return r
}

// IDs returns the registered agent ids, built-ins first.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Config returns the adapter definition for id. Built-in config keys are
// accepted as aliases.
func (r *Registry) Config(id string) (config.AgentConfig, error) {
	ac, ok := r.configs[config.NormalizeAgentID(id)]
	if !ok {
		return config.AgentConfig{}, fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotFound)
	}
	return ac, nil
}

// Adapter returns the adapter registered for id.
func (r *Registry) Adapter(id string) (Adapter, error) {
	a, ok := r.adapters[config.NormalizeAgentID(id)]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotFound)
	}
	return a, nil
}

// Register replaces or adds an adapter. Intended for tests and embedders
// that supply their own agents.
func (r *Registry) Register(ac config.AgentConfig, a Adapter) {
	if _, ok := r.configs[ac.ID]; !ok {
		r.ids = append(r.ids, ac.ID)
	}
	r.configs[ac.ID] = ac
	r.adapters[ac.ID] = a
}

// flatten joins a bundle into a single stdin prompt for CLIs that have no
// separate system prompt channel.
func flatten(b prompt.Bundle) string {
	if b.System == "" {
		return b.User
	}
	return strings.TrimRight(b.System, "\n") + "\n\n" + b.User
}
