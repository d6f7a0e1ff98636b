package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every interpeer environment variable.
const EnvPrefix = "INTERPEER_"

// LookupFunc resolves an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup returns a LookupFunc backed by m.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// EnvState captures environment-derived values. Layer has the same shape as
// the config file so both merge through the same code path.
type EnvState struct {
	Layer File

	// ConfigPath is an explicit config file path. When set, read and parse
	// failures are errors instead of warnings.
	ConfigPath  string
	MetricsAddr string
	Trace       string

	// Warnings lists env vars that were set but could not be parsed; their
	// values are ignored.
	Warnings []string
}

type envReader struct {
	lookup   LookupFunc
	warnings []string
}

func (r *envReader) str(name string) *string {
	v, ok := r.lookup(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (r *envReader) int(name string) *int {
	s := r.str(name)
	if s == nil {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		r.warnings = append(r.warnings, fmt.Sprintf("ignoring %s%s=%q: not an integer", EnvPrefix, name, *s))
		return nil
	}
	return &i
}

func (r *envReader) bool(name string) *bool {
	s := r.str(name)
	if s == nil {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*s))
	if err != nil {
		r.warnings = append(r.warnings, fmt.Sprintf("ignoring %s%s=%q: not a boolean", EnvPrefix, name, *s))
		return nil
	}
	return &b
}

func (r *envReader) fields(name string) *[]string {
	s := r.str(name)
	if s == nil {
		return nil
	}
	f := strings.Fields(*s)
	return &f
}

// list reads a comma separated list. Unlike other values an empty string
// counts as set and yields an empty list.
func (r *envReader) list(name string) *[]string {
	v, ok := r.lookup(EnvPrefix + name)
	if !ok {
		return nil
	}
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return &out
}

// LoadEnvState reads INTERPEER_* variables through lookup.
func LoadEnvState(lookup LookupFunc) EnvState {
	r := &envReader{lookup: lookup}
	var state EnvState

	for _, b := range Builtins {
		k := strings.ToUpper(b.Key) + "_"
		fa := &FileAgent{
			Command:   r.str(k + "COMMAND"),
			Model:     r.str(k + "MODEL"),
			ExtraArgs: r.fields(k + "EXTRA_ARGS"),
		}
		maxAttempts := r.int(k + "MAX_ATTEMPTS")
		baseDelay := r.int(k + "BASE_DELAY_MS")
		if maxAttempts != nil || baseDelay != nil {
			fa.Retry = &FileRetry{MaxAttempts: maxAttempts, BaseDelayMs: baseDelay}
		}
		switch b.Key {
		case "claude":
			fa.SettingSources = r.list(k + "SETTING_SOURCES")
		case "codex":
			fa.Profile = r.str(k + "PROFILE")
		case "factory":
			fa.OutputFormat = r.str(k + "OUTPUT_FORMAT")
			fa.Verbose = r.bool(k + "VERBOSE")
		}
		if !fa.empty() {
			if state.Layer.Agents == nil {
				state.Layer.Agents = make(map[string]*FileAgent)
			}
			state.Layer.Agents[b.Key] = fa
		}
	}

	defaults := FileDefaults{Agent: r.str("DEFAULT_AGENT"), Model: r.str("DEFAULT_MODEL")}
	if defaults != (FileDefaults{}) {
		state.Layer.Defaults = &defaults
	}

	cache := FileCache{
		Enabled:    r.bool("CACHE_ENABLED"),
		TTLMs:      r.int("CACHE_TTL_MS"),
		MaxEntries: r.int("CACHE_MAX_ENTRIES"),
	}
	if cache != (FileCache{}) {
		state.Layer.Cache = &cache
	}

	logging := FileLogging{
		Enabled:       r.bool("LOG_ENABLED"),
		RedactContent: r.bool("LOG_REDACT"),
		Level:         r.str("LOG_LEVEL"),
		Format:        r.str("LOG_FORMAT"),
	}
	if logging != (FileLogging{}) {
		state.Layer.Logging = &logging
	}

	if v := r.str("CONFIG_PATH"); v != nil {
		state.ConfigPath = *v
	}
	if v := r.str("METRICS_ADDR"); v != nil {
		state.MetricsAddr = *v
	}
	if v := r.str("TRACE"); v != nil {
		state.Trace = *v
	}

	state.Warnings = r.warnings
	return state
}

func (a *FileAgent) empty() bool {
	return a.Command == nil && a.Model == nil && a.Retry == nil && a.SettingSources == nil &&
		a.Profile == nil && a.OutputFormat == nil && a.Verbose == nil && a.ExtraArgs == nil && a.Args == nil
}
