package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"sync"
	"time"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// DefaultProbeTimeout bounds a single version probe.
const DefaultProbeTimeout = 15 * time.Second

// Prober checks that an agent's command can run. Successful probes are
// remembered per agent id for the life of the Prober; failures are not, so
// installing a missing CLI takes effect on the next request.
type Prober struct {
	mu        sync.Mutex
	available map[string]bool
	timeout   time.Duration
}

// NewProber returns a Prober with DefaultProbeTimeout.
func NewProber() *Prober {
	return &Prober{available: make(map[string]bool), timeout: DefaultProbeTimeout}
}

// Ensure runs "<command> --version" unless ac is an SDK agent or was
// already probed successfully. Failures are *domain.AvailabilityError.
func (p *Prober) Ensure(ctx context.Context, ac config.AgentConfig) error {
	if ac.Kind == config.KindSDK {
		return nil
	}

	p.mu.Lock()
	ok := p.available[ac.ID]
	p.mu.Unlock()
	if ok {
		return nil
	}

	if err := p.probe(ctx, ac); err != nil {
		return err
	}

	p.mu.Lock()
	p.available[ac.ID] = true
	p.mu.Unlock()
	return nil
}

// Checked reports whether id has been probed successfully.
func (p *Prober) Checked(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available[id]
}

// Reset forgets every probe result.
func (p *Prober) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = make(map[string]bool)
}

func (p *Prober) probe(ctx context.Context, ac config.AgentConfig) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := executeCommand(ctx, executeOptions{Command: ac.Command, Args: []string{"--version"}})
	if err != nil {
		hint := ""
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			hint = InstallHint(ac.ID, ac.Command)
		}
		return &domain.AvailabilityError{Agent: ac.ID, Command: ac.Command, Err: err, Hint: hint}
	}
	if res.ExitCode != 0 {
		hint := InstallHint(ac.ID, ac.Command)
		if IsAuthFailure(ac.ID, res.ExitCode, res.Stderr) {
			hint = AuthHint(ac.ID)
		}
		msg := fmt.Sprintf("version check exited with code %d", res.ExitCode)
		if tail := lastLines(res.Stderr, 3); tail != "" {
			msg += ": " + tail
		}
		return &domain.AvailabilityError{Agent: ac.ID, Command: ac.Command, Err: errors.New(msg), Hint: hint}
	}
	return nil
}
