package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration shape. Pointer fields distinguish "unset"
// from zero values so layers merge field by field.
type File struct {
	Agents   map[string]*FileAgent `json:"agents,omitempty" yaml:"agents,omitempty"`
	Logging  *FileLogging          `json:"logging,omitempty" yaml:"logging,omitempty"`
	Cache    *FileCache            `json:"cache,omitempty" yaml:"cache,omitempty"`
	Defaults *FileDefaults         `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// FileAgent is one entry under "agents".
type FileAgent struct {
	Command        *string    `json:"command,omitempty" yaml:"command,omitempty"`
	Model          *string    `json:"model,omitempty" yaml:"model,omitempty"`
	Retry          *FileRetry `json:"retry,omitempty" yaml:"retry,omitempty"`
	SettingSources *[]string  `json:"settingSources,omitempty" yaml:"settingSources,omitempty"`
	Profile        *string    `json:"profile,omitempty" yaml:"profile,omitempty"`
	OutputFormat   *string    `json:"outputFormat,omitempty" yaml:"outputFormat,omitempty"`
	Verbose        *bool      `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	ExtraArgs      *[]string  `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
	Args           []string   `json:"args,omitempty" yaml:"args,omitempty"`
}

// FileRetry merges key by key into the agent's retry settings.
type FileRetry struct {
	MaxAttempts *int `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	BaseDelayMs *int `json:"baseDelayMs,omitempty" yaml:"baseDelayMs,omitempty"`
}

// FileLogging is the "logging" section.
type FileLogging struct {
	Enabled       *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	RedactContent *bool   `json:"redactContent,omitempty" yaml:"redactContent,omitempty"`
	Level         *string `json:"level,omitempty" yaml:"level,omitempty"`
	Format        *string `json:"format,omitempty" yaml:"format,omitempty"`
}

// FileCache is the "cache" section.
type FileCache struct {
	Enabled    *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TTLMs      *int  `json:"ttlMs,omitempty" yaml:"ttlMs,omitempty"`
	MaxEntries *int  `json:"maxEntries,omitempty" yaml:"maxEntries,omitempty"`
}

// FileDefaults is the "defaults" section.
type FileDefaults struct {
	Agent *string `json:"agent,omitempty" yaml:"agent,omitempty"`
	Model *string `json:"model,omitempty" yaml:"model,omitempty"`
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ParseFile decodes config file data. YAML is used for .yaml/.yml paths,
// JSON otherwise. Empty data yields an empty File.
func ParseFile(path string, data []byte) (*File, error) {
	var f File
	if len(strings.TrimSpace(string(data))) == 0 {
		return &f, nil
	}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return &f, nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &f, nil
}

// MarshalFile encodes f in the format implied by path.
func MarshalFile(path string, f *File) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(f)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

var (
	knownTopLevelKeys = []string{"agents", "logging", "cache", "defaults"}
	knownAgentKeys    = []string{"command", "model", "retry", "settingSources", "profile", "outputFormat", "verbose", "extraArgs", "args"}
	knownRetryKeys    = []string{"maxAttempts", "baseDelayMs"}
	knownLoggingKeys  = []string{"enabled", "redactContent", "level", "format"}
	knownCacheKeys    = []string{"enabled", "ttlMs", "maxEntries"}
	knownDefaultsKeys = []string{"agent", "model"}
)

// checkUnknownKeys returns a warning for each key the loader would ignore.
func checkUnknownKeys(path string, data []byte) []string {
	var raw map[string]any
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil
	}

	name := filepath.Base(path)
	var warnings []string
	check := func(section map[string]any, known []string, where string) {
		keys := make([]string, 0, len(section))
		for k := range section {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if slices.Contains(known, key) {
				continue
			}
			warning := fmt.Sprintf("unknown key %q in %s", key, name)
			if where != "" {
				warning = fmt.Sprintf("unknown key %q in %s section of %s", key, where, name)
			}
			if suggestion := findSimilar(key, known); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
		}
	}

	check(raw, knownTopLevelKeys, "")
	if agents, ok := raw["agents"].(map[string]any); ok {
		ids := make([]string, 0, len(agents))
		for id := range agents {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			entry, ok := agents[id].(map[string]any)
			if !ok {
				continue
			}
			check(entry, knownAgentKeys, "agents."+id)
			if r, ok := entry["retry"].(map[string]any); ok {
				check(r, knownRetryKeys, "agents."+id+".retry")
			}
		}
	}
	if s, ok := raw["logging"].(map[string]any); ok {
		check(s, knownLoggingKeys, "logging")
	}
	if s, ok := raw["cache"].(map[string]any); ok {
		check(s, knownCacheKeys, "cache")
	}
	if s, ok := raw["defaults"].(map[string]any); ok {
		check(s, knownDefaultsKeys, "defaults")
	}
	return warnings
}

// findSimilar finds the most similar string from candidates using Levenshtein distance.
// Returns empty string if no candidate is similar enough (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
