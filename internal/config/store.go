package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/filelock"
)

// Store mutates the on-disk config file. Every mutation holds a file lock
// and replaces the file atomically; a mutation that fails writes nothing.
type Store struct {
	path   string
	legacy string
}

// NewStore returns a store for the file Load would read for projectRoot.
// INTERPEER_CONFIG_PATH, when set, names the file.
func NewStore(projectRoot string, lookup LookupFunc) *Store {
	env := LoadEnvState(lookup)
	if explicit := ExplicitPath(projectRoot, env); explicit != "" {
		return &Store{path: explicit}
	}
	return &Store{path: PrimaryPath(projectRoot), legacy: LegacyPath(projectRoot)}
}

// Path returns the file the store writes.
func (s *Store) Path() string {
	return s.path
}

// Read returns the current file contents. A missing file reads as empty.
// When only the legacy file exists its contents are returned, and the next
// mutation writes them to Path.
func (s *Store) Read() (*File, error) {
	data, path, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(path, data)
	if err != nil {
		return nil, &domain.ConfigError{Path: path, Err: err}
	}
	return f, nil
}

func (s *Store) readRaw() ([]byte, string, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		return data, s.path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, s.path, &domain.ConfigError{Path: s.path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	if s.legacy == "" {
		return nil, s.path, nil
	}
	data, err = os.ReadFile(s.legacy)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, s.path, nil
	}
	if err != nil {
		return nil, s.legacy, &domain.ConfigError{Path: s.legacy, Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	return data, s.legacy, nil
}

// Update applies fn to the current file under lock and writes the result.
// fn may run twice: once against an unlocked read so that a rejected change
// or an unreadable file returns before the lock file is created, then again
// under the lock against a fresh read. If fn returns an error nothing is
// written.
func (s *Store) Update(fn func(f *File) error) error {
	f, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}

	return filelock.WithLock(s.path, func() error {
		f, err := s.Read()
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		data, err := MarshalFile(s.path, f)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return filelock.AtomicWrite(s.path, data)
	})
}

// AgentSpec describes a custom agent to add.
type AgentSpec struct {
	Command     string
	Model       string
	MaxAttempts *int
	BaseDelayMs *int
	Args        []string
}

// AddAgent registers a custom agent. Built-in ids and keys are rejected with
// domain.ErrReservedID; an existing custom id with domain.ErrAgentExists.
func (s *Store) AddAgent(id string, spec AgentSpec) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &domain.ValidationError{Field: "id", Message: "must not be empty"}
	}
	if IsReserved(id) {
		return fmt.Errorf("agent %q: %w", id, domain.ErrReservedID)
	}
	if strings.TrimSpace(spec.Command) == "" {
		return &domain.ValidationError{Agent: id, Field: "command", Message: "must not be empty"}
	}
	if spec.MaxAttempts != nil && *spec.MaxAttempts < 1 {
		return &domain.ValidationError{Agent: id, Field: "max-attempts", Message: fmt.Sprintf("must be >= 1, got %d", *spec.MaxAttempts)}
	}
	if spec.BaseDelayMs != nil && *spec.BaseDelayMs < 0 {
		return &domain.ValidationError{Agent: id, Field: "base-delay", Message: fmt.Sprintf("must be >= 0, got %d", *spec.BaseDelayMs)}
	}

	return s.Update(func(f *File) error {
		if _, ok := f.Agents[id]; ok {
			return fmt.Errorf("agent %q: %w", id, domain.ErrAgentExists)
		}
		fa := &FileAgent{Command: ptr(spec.Command)}
		if spec.Model != "" {
			fa.Model = ptr(spec.Model)
		}
		if spec.MaxAttempts != nil || spec.BaseDelayMs != nil {
			fa.Retry = &FileRetry{MaxAttempts: spec.MaxAttempts, BaseDelayMs: spec.BaseDelayMs}
		}
		if len(spec.Args) > 0 {
			fa.Args = slices.Clone(spec.Args)
		}
		if f.Agents == nil {
			f.Agents = make(map[string]*FileAgent)
		}
		f.Agents[id] = fa
		return nil
	})
}

// RemoveAgent deletes a custom agent. Built-ins cannot be removed.
func (s *Store) RemoveAgent(id string) error {
	if IsReserved(id) {
		return fmt.Errorf("agent %q: %w", id, domain.ErrReservedID)
	}
	return s.Update(func(f *File) error {
		if _, ok := f.Agents[id]; !ok {
			return fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotFound)
		}
		delete(f.Agents, id)
		if len(f.Agents) == 0 {
			f.Agents = nil
		}
		return nil
	})
}

// SetAgent updates the command and/or model of a built-in or existing custom
// agent. Nil values are left unchanged.
func (s *Store) SetAgent(id string, command, model *string) error {
	if command != nil && strings.TrimSpace(*command) == "" {
		return &domain.ValidationError{Agent: id, Field: "command", Message: "must not be empty"}
	}
	return s.Update(func(f *File) error {
		key := id
		if b, ok := BuiltinByName(id); ok {
			key = b.Key
			if _, ok := f.Agents[b.ID]; ok {
				key = b.ID
			}
		} else if _, ok := f.Agents[id]; !ok {
			return fmt.Errorf("agent %q: %w", id, domain.ErrAgentNotFound)
		}
		if f.Agents == nil {
			f.Agents = make(map[string]*FileAgent)
		}
		fa := f.Agents[key]
		if fa == nil {
			fa = &FileAgent{}
			f.Agents[key] = fa
		}
		if command != nil {
			fa.Command = ptr(*command)
		}
		if model != nil {
			fa.Model = ptr(*model)
		}
		return nil
	})
}

// SetDefault updates the default agent and/or model. The agent must be a
// built-in or a custom agent present in the file.
func (s *Store) SetDefault(agent, model *string) error {
	return s.Update(func(f *File) error {
		if f.Defaults == nil {
			f.Defaults = &FileDefaults{}
		}
		if agent != nil {
			id := NormalizeAgentID(*agent)
			if !IsReserved(id) {
				if _, ok := f.Agents[id]; !ok {
					return fmt.Errorf("agent %q: %w", *agent, domain.ErrAgentNotFound)
				}
			}
			f.Defaults.Agent = ptr(id)
		}
		if model != nil {
			f.Defaults.Model = ptr(*model)
		}
		return nil
	})
}

func ptr[T any](v T) *T {
	return &v
}
