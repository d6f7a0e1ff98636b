package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for agent registration.
var (
	ErrReservedID    = errors.New("reserved id")
	ErrAgentExists   = errors.New("already exists")
	ErrAgentNotFound = errors.New("not found")
)

// AgentError is implemented by every error the router surfaces, so callers
// routing across agents can attribute a failure.
type AgentError interface {
	error
	AgentID() string
}

// AgentOf returns the agent id attached to err, or "" if none is attached.
func AgentOf(err error) string {
	var ae AgentError
	if errors.As(err, &ae) {
		return ae.AgentID()
	}
	return ""
}

func prefix(agent string) string {
	if agent == "" {
		return ""
	}
	return agent + ": "
}

// ValidationError reports a malformed request field. Never retried.
type ValidationError struct {
	Agent   string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%sinvalid %s: %s", prefix(e.Agent), e.Field, e.Message)
}

// AgentID implements AgentError.
func (e *ValidationError) AgentID() string { return e.Agent }

// ConfigError reports an unreadable or unparseable config file that was
// explicitly requested, or an invalid resolved configuration.
type ConfigError struct {
	Agent string
	Path  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%sconfig: %v", prefix(e.Agent), e.Err)
	}
	return fmt.Sprintf("%sconfig %s: %v", prefix(e.Agent), e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AgentID implements AgentError.
func (e *ConfigError) AgentID() string { return e.Agent }

// AvailabilityError reports that an agent's command is missing or fails its
// version probe. Hint carries install/auth guidance.
type AvailabilityError struct {
	Agent   string
	Command string
	Err     error
	Hint    string
}

func (e *AvailabilityError) Error() string {
	msg := fmt.Sprintf("%s%s is not available: %v", prefix(e.Agent), e.Command, e.Err)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *AvailabilityError) Unwrap() error { return e.Err }

// AgentID implements AgentError.
func (e *AvailabilityError) AgentID() string { return e.Agent }

// AdapterError reports that the SDK call or subprocess itself failed. Err is
// the last underlying error, unmodified.
type AdapterError struct {
	Agent string
	Err   error
	Hint  string
}

func (e *AdapterError) Error() string {
	msg := fmt.Sprintf("%s%v", prefix(e.Agent), e.Err)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *AdapterError) Unwrap() error { return e.Err }

// AgentID implements AgentError.
func (e *AdapterError) AgentID() string { return e.Agent }

// ResourceReadError reports that a resource path could not be read. Never retried.
type ResourceReadError struct {
	Agent string
	Path  string
	Err   error
}

func (e *ResourceReadError) Error() string {
	return fmt.Sprintf("%sfailed to read resource %q: %v", prefix(e.Agent), e.Path, e.Err)
}

func (e *ResourceReadError) Unwrap() error { return e.Err }

// AgentID implements AgentError.
func (e *ResourceReadError) AgentID() string { return e.Agent }

// WithAgent attaches agent to err if err is one of the typed errors above and
// has no agent yet. Any other error is wrapped as an AdapterError.
func WithAgent(err error, agent string) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		ce *ConfigError
		av *AvailabilityError
		ad *AdapterError
		rr *ResourceReadError
	)
	switch {
	case errors.As(err, &ve):
		if ve.Agent == "" {
			ve.Agent = agent
		}
	case errors.As(err, &ce):
		if ce.Agent == "" {
			ce.Agent = agent
		}
	case errors.As(err, &av):
		if av.Agent == "" {
			av.Agent = agent
		}
	case errors.As(err, &ad):
		if ad.Agent == "" {
			ad.Agent = agent
		}
	case errors.As(err, &rr):
		if rr.Agent == "" {
			rr.Agent = agent
		}
	default:
		return &AdapterError{Agent: agent, Err: err}
	}
	return err
}
