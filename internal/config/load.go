package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/richhaase/interpeer/internal/domain"
)

const (
	// ConfigDirName is the per-project directory holding the config file.
	ConfigDirName = ".interpeer"
	// LegacyConfigDirName is where older releases kept the config file.
	LegacyConfigDirName = ".claude"
	// ConfigFileName is the config file name in both locations.
	ConfigFileName = "interpeer.config.json"
)

// PrimaryPath returns the default config file path for projectRoot.
func PrimaryPath(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigDirName, ConfigFileName)
}

// LegacyPath returns the pre-migration config file path for projectRoot.
func LegacyPath(projectRoot string) string {
	return filepath.Join(projectRoot, LegacyConfigDirName, ConfigFileName)
}

// ExplicitPath returns the path named by INTERPEER_CONFIG_PATH resolved
// against projectRoot, or "" when unset.
func ExplicitPath(projectRoot string, env EnvState) string {
	if env.ConfigPath == "" {
		return ""
	}
	if filepath.IsAbs(env.ConfigPath) {
		return env.ConfigPath
	}
	return filepath.Join(projectRoot, env.ConfigPath)
}

// LoadResult contains the resolved config and everything that produced it.
type LoadResult struct {
	Config ResolvedConfig
	// File is the parsed file layer, nil when no usable file was found.
	File *File
	// Path is the file that was read, or "" when none was.
	Path     string
	Env      EnvState
	Warnings []string
}

// Load reads the optional config file under projectRoot, captures the
// environment through lookup, and resolves both with ov.
//
// A missing file is not an error. A malformed file is a warning and is
// ignored, unless INTERPEER_CONFIG_PATH named it, in which case Load returns
// a *domain.ConfigError. An invalid resolved config is always a ConfigError.
func Load(projectRoot string, lookup LookupFunc, ov Overrides) (*LoadResult, error) {
	env := LoadEnvState(lookup)
	result := &LoadResult{Env: env}
	result.Warnings = append(result.Warnings, env.Warnings...)

	file, path, warnings, err := readFileLayer(projectRoot, env)
	if err != nil {
		return nil, err
	}
	result.File = file
	result.Path = path
	result.Warnings = append(result.Warnings, warnings...)

	cfg, resolveWarnings := Resolve(file, env.Layer, ov)
	if err := cfg.Validate(); err != nil {
		if file == nil || ExplicitPath(projectRoot, env) != "" {
			return nil, &domain.ConfigError{Path: path, Err: err}
		}
		// A discovered file that fails validation is dropped like a
		// malformed one; only the env and override layers remain.
		result.Warnings = append(result.Warnings, fmt.Sprintf("ignoring config file %s: %v", path, err))
		result.File = nil
		result.Path = ""
		cfg, resolveWarnings = Resolve(nil, env.Layer, ov)
		if err := cfg.Validate(); err != nil {
			return nil, &domain.ConfigError{Err: err}
		}
	}
	result.Warnings = append(result.Warnings, resolveWarnings...)
	result.Config = cfg
	return result, nil
}

func readFileLayer(projectRoot string, env EnvState) (*File, string, []string, error) {
	if explicit := ExplicitPath(projectRoot, env); explicit != "" {
		data, err := os.ReadFile(explicit)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", []string{fmt.Sprintf("config file %s not found, using defaults", explicit)}, nil
		}
		if err != nil {
			return nil, "", nil, &domain.ConfigError{Path: explicit, Err: fmt.Errorf("failed to read config file: %w", err)}
		}
		f, err := ParseFile(explicit, data)
		if err != nil {
			return nil, "", nil, &domain.ConfigError{Path: explicit, Err: err}
		}
		return f, explicit, checkUnknownKeys(explicit, data), nil
	}

	var warnings []string
	path := PrimaryPath(projectRoot)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		legacy := LegacyPath(projectRoot)
		legacyData, legacyErr := os.ReadFile(legacy)
		if legacyErr != nil {
			if !errors.Is(legacyErr, fs.ErrNotExist) {
				warnings = append(warnings, fmt.Sprintf("failed to read config file %s: %v", legacy, legacyErr))
			}
			return nil, "", warnings, nil
		}
		warnings = append(warnings, fmt.Sprintf("config file %s is deprecated, move it to %s", legacy, path))
		path, data, err = legacy, legacyData, nil
	}
	if err != nil {
		return nil, "", append(warnings, fmt.Sprintf("failed to read config file %s: %v", path, err)), nil
	}

	f, err := ParseFile(path, data)
	if err != nil {
		return nil, "", append(warnings, fmt.Sprintf("ignoring config file %s: %v", path, err)), nil
	}
	return f, path, append(warnings, checkUnknownKeys(path, data)...), nil
}
