package config

import (
	"fmt"
	"slices"
	"sort"

	"github.com/richhaase/interpeer/internal/retry"
)

// Overrides are programmatic call-site values applied after every other layer.
type Overrides struct {
	Agent string
	Model string
}

// Resolve merges layers into one configuration.
// Precedence: overrides > env > file > defaults
//
// Resolve is pure. Custom agents are only created from the file layer; an
// env layer naming an unknown agent is ignored. The returned warnings list
// entries that were dropped.
func Resolve(file *File, env File, ov Overrides) (ResolvedConfig, []string) {
	result := Defaults().clone()
	var warnings []string

	if file != nil {
		warnings = append(warnings, applyLayer(&result, file, true)...)
	}
	warnings = append(warnings, applyLayer(&result, &env, false)...)

	if ov.Agent != "" {
		result.Defaults.Agent = NormalizeAgentID(ov.Agent)
	}
	if ov.Model != "" {
		result.Defaults.Model = ov.Model
	}
	return result, warnings
}

func applyLayer(cfg *ResolvedConfig, layer *File, allowCustom bool) []string {
	var warnings []string

	names := make([]string, 0, len(layer.Agents))
	for name := range layer.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fa := layer.Agents[name]
		if fa == nil {
			continue
		}
		id := NormalizeAgentID(name)
		ac, ok := cfg.Agents[id]
		if !ok {
			if !allowCustom {
				warnings = append(warnings, fmt.Sprintf("ignoring unknown agent %q", name))
				continue
			}
			if fa.Command == nil || *fa.Command == "" {
				warnings = append(warnings, fmt.Sprintf("ignoring custom agent %q: command is required", name))
				continue
			}
			ac = AgentConfig{ID: id, Kind: KindCLI, Retry: DefaultRetry}
		}
		mergeAgent(&ac, fa)
		cfg.Agents[id] = ac
	}

	if l := layer.Logging; l != nil {
		if l.Enabled != nil {
			cfg.Logging.Enabled = *l.Enabled
		}
		if l.RedactContent != nil {
			cfg.Logging.RedactContent = *l.RedactContent
		}
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.Format != nil {
			cfg.Logging.Format = *l.Format
		}
	}

	if c := layer.Cache; c != nil {
		if c.Enabled != nil {
			cfg.Cache.Enabled = *c.Enabled
		}
		if c.TTLMs != nil {
			cfg.Cache.TTLMs = *c.TTLMs
		}
		if c.MaxEntries != nil {
			cfg.Cache.MaxEntries = *c.MaxEntries
		}
	}

	if d := layer.Defaults; d != nil {
		if d.Agent != nil && *d.Agent != "" {
			cfg.Defaults.Agent = NormalizeAgentID(*d.Agent)
		}
		if d.Model != nil {
			cfg.Defaults.Model = *d.Model
		}
	}
	return warnings
}

func mergeAgent(ac *AgentConfig, fa *FileAgent) {
	if fa.Command != nil && *fa.Command != "" {
		ac.Command = *fa.Command
	}
	if fa.Model != nil {
		ac.Model = *fa.Model
	}
	if fa.Retry != nil {
		ac.Retry = mergeRetry(ac.Retry, fa.Retry)
	}
	if fa.SettingSources != nil {
		ac.SettingSources = slices.Clone(*fa.SettingSources)
		if ac.SettingSources == nil {
			ac.SettingSources = []string{}
		}
	}
	if fa.Profile != nil {
		ac.Profile = *fa.Profile
	}
	if fa.OutputFormat != nil {
		ac.OutputFormat = *fa.OutputFormat
	}
	if fa.Verbose != nil {
		ac.Verbose = *fa.Verbose
	}
	if fa.ExtraArgs != nil {
		ac.ExtraArgs = slices.Clone(*fa.ExtraArgs)
	}
	if fa.Args != nil && !ac.Builtin {
		ac.Args = slices.Clone(fa.Args)
	}
}

// mergeRetry overlays only the keys present in r.
func mergeRetry(base retry.Settings, r *FileRetry) retry.Settings {
	if r.MaxAttempts != nil {
		base.MaxAttempts = *r.MaxAttempts
	}
	if r.BaseDelayMs != nil {
		base.BaseDelayMs = *r.BaseDelayMs
	}
	return base
}
