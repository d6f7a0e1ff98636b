// Package config resolves interpeer configuration from built-in defaults, an
// optional on-disk file, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/richhaase/interpeer/internal/retry"
)

// AgentKind selects the adapter shape for an agent.
type AgentKind string

const (
	// KindSDK agents are invoked through an SDK and are never probed.
	KindSDK AgentKind = "sdk"
	// KindCLI agents are invoked as a subprocess and probed before first use.
	KindCLI AgentKind = "cli"
)

// Built-in agent ids as exposed on the tool surface.
const (
	AgentClaude  = "claude_code"
	AgentCodex   = "codex_cli"
	AgentFactory = "factory_droid"
)

// Builtin describes a reserved agent shipped with interpeer.
type Builtin struct {
	ID      string
	Key     string // key under "agents" in the config file and in env var names
	Kind    AgentKind
	Command string
	Model   string
}

// Builtins lists the built-in agents in display order.
var Builtins = []Builtin{
	{ID: AgentClaude, Key: "claude", Kind: KindSDK, Command: "claude", Model: "sonnet"},
	{ID: AgentCodex, Key: "codex", Kind: KindCLI, Command: "codex", Model: "gpt-5-codex"},
	{ID: AgentFactory, Key: "factory", Kind: KindCLI, Command: "droid", Model: "claude-sonnet-4-5"},
}

// DefaultRetry is the retry policy for every built-in agent.
var DefaultRetry = retry.Settings{MaxAttempts: 2, BaseDelayMs: 1000}

// BuiltinByName finds a built-in by tool-facing id or config key.
func BuiltinByName(name string) (Builtin, bool) {
	for _, b := range Builtins {
		if b.ID == name || b.Key == name {
			return b, true
		}
	}
	return Builtin{}, false
}

// IsReserved reports whether name collides with a built-in id or key.
func IsReserved(name string) bool {
	_, ok := BuiltinByName(name)
	return ok
}

// NormalizeAgentID maps a built-in config key to its tool-facing id.
// Other names are returned unchanged.
func NormalizeAgentID(name string) string {
	if b, ok := BuiltinByName(name); ok {
		return b.ID
	}
	return name
}

// AgentConfig is the resolved adapter definition for one agent.
type AgentConfig struct {
	ID      string         `yaml:"id"`
	Kind    AgentKind      `yaml:"kind"`
	Builtin bool           `yaml:"builtin"`
	Command string         `yaml:"command"`
	Model   string         `yaml:"model"`
	Retry   retry.Settings `yaml:"retry"`

	// SettingSources lists the Claude settings sources the SDK may load.
	// An empty list isolates the session from user and project settings.
	SettingSources []string `yaml:"settingSources,omitempty"`
	// Profile is the codex configuration profile.
	Profile string `yaml:"profile,omitempty"`
	// OutputFormat is the factory CLI output format (json or text).
	OutputFormat string `yaml:"outputFormat,omitempty"`
	// Verbose asks the CLI for verbose output where supported.
	Verbose bool `yaml:"verbose,omitempty"`
	// ExtraArgs are appended to built-in CLI invocations.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`
	// Args is the argument template for custom agents; "{model}" is substituted.
	Args []string `yaml:"args,omitempty"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RedactContent bool   `yaml:"redactContent"`
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMs      int  `yaml:"ttlMs"`
	MaxEntries int  `yaml:"maxEntries"`
}

// TTL returns TTLMs as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// DefaultsConfig holds the default routing target.
type DefaultsConfig struct {
	Agent string `yaml:"agent"`
	Model string `yaml:"model,omitempty"`
}

// ResolvedConfig is the fully merged configuration. It is immutable once
// returned; callers must not modify the Agents map.
type ResolvedConfig struct {
	Agents   map[string]AgentConfig `yaml:"agents"`
	Logging  LoggingConfig          `yaml:"logging"`
	Cache    CacheConfig            `yaml:"cache"`
	Defaults DefaultsConfig         `yaml:"defaults"`
}

// Defaults returns the built-in configuration.
func Defaults() ResolvedConfig {
	cfg := ResolvedConfig{
		Agents: make(map[string]AgentConfig, len(Builtins)),
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Format:  "json",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMs:      int((10 * time.Minute).Milliseconds()),
			MaxEntries: 50,
		},
		Defaults: DefaultsConfig{Agent: AgentClaude},
	}
	for _, b := range Builtins {
		ac := AgentConfig{
			ID:      b.ID,
			Kind:    b.Kind,
			Builtin: true,
			Command: b.Command,
			Model:   b.Model,
			Retry:   DefaultRetry,
		}
		switch b.Key {
		case "claude":
			ac.SettingSources = []string{"user", "project"}
		case "factory":
			ac.OutputFormat = "json"
		}
		cfg.Agents[b.ID] = ac
	}
	return cfg
}

// AgentIDs returns built-in ids in display order followed by custom ids sorted.
func (c ResolvedConfig) AgentIDs() []string {
	ids := make([]string, 0, len(c.Agents))
	for _, b := range Builtins {
		if _, ok := c.Agents[b.ID]; ok {
			ids = append(ids, b.ID)
		}
	}
	var custom []string
	for id, ac := range c.Agents {
		if !ac.Builtin {
			custom = append(custom, id)
		}
	}
	sort.Strings(custom)
	return append(ids, custom...)
}

// Agent looks up an agent by id or built-in config key.
func (c ResolvedConfig) Agent(id string) (AgentConfig, bool) {
	ac, ok := c.Agents[NormalizeAgentID(id)]
	return ac, ok
}

// Validate checks that all resolved values are usable.
func (c ResolvedConfig) Validate() error {
	for _, id := range c.AgentIDs() {
		ac := c.Agents[id]
		if ac.Command == "" {
			return fmt.Errorf("agents.%s.command must not be empty", id)
		}
		if ac.Retry.MaxAttempts < 1 {
			return fmt.Errorf("agents.%s.retry.maxAttempts must be >= 1, got %d", id, ac.Retry.MaxAttempts)
		}
		if ac.Retry.BaseDelayMs < 0 {
			return fmt.Errorf("agents.%s.retry.baseDelayMs must be >= 0, got %d", id, ac.Retry.BaseDelayMs)
		}
		if ac.OutputFormat != "" && !slices.Contains([]string{"json", "text"}, ac.OutputFormat) {
			return fmt.Errorf("agents.%s.outputFormat must be json or text, got %q", id, ac.OutputFormat)
		}
	}
	if c.Cache.TTLMs < 0 {
		return fmt.Errorf("cache.ttlMs must be >= 0, got %d", c.Cache.TTLMs)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.maxEntries must be >= 1, got %d", c.Cache.MaxEntries)
	}
	if _, ok := c.Agents[c.Defaults.Agent]; !ok {
		return fmt.Errorf("defaults.agent must be one of %v, got %q", c.AgentIDs(), c.Defaults.Agent)
	}
	return nil
}

// clone deep-copies the agent map and slices so layers never alias.
func (c ResolvedConfig) clone() ResolvedConfig {
	out := c
	out.Agents = make(map[string]AgentConfig, len(c.Agents))
	for id, ac := range c.Agents {
		ac.SettingSources = slices.Clone(ac.SettingSources)
		ac.ExtraArgs = slices.Clone(ac.ExtraArgs)
		ac.Args = slices.Clone(ac.Args)
		out.Agents[id] = ac
	}
	return out
}
