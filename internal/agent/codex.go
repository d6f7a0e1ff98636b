package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// Compile-time interface check
var _ Adapter = (*CodexAdapter)(nil)

// CodexAdapter runs reviews through "codex exec --json".
type CodexAdapter struct {
	cfg config.AgentConfig
}

// NewCodexAdapter creates a CodexAdapter.
func NewCodexAdapter(cfg config.AgentConfig) *CodexAdapter {
	return &CodexAdapter{cfg: cfg}
}

// ID returns the agent id.
func (c *CodexAdapter) ID() string {
	return c.cfg.ID
}

// Args returns the command line for model; the prompt is read from stdin.
func (c *CodexAdapter) Args(model string) []string {
	args := []string{"exec", "--json", "--color", "never"}
	if model != "" {
		args = append(args, "--model", model)
	}
	if c.cfg.Profile != "" {
		args = append(args, "--profile", c.cfg.Profile)
	}
	args = append(args, c.cfg.ExtraArgs...)
	return append(args, "-")
}

// Review pipes the prompt to codex and parses its JSONL event stream.
func (c *CodexAdapter) Review(ctx context.Context, inv Invocation) (*domain.ReviewResult, error) {
	res, err := executeCommand(ctx, executeOptions{
		Command: c.cfg.Command,
		Args:    c.Args(inv.Model),
		Stdin:   bytes.NewReader([]byte(flatten(inv.Prompt))),
		WorkDir: inv.WorkDir,
	})
	if err != nil {
		return nil, &domain.AdapterError{Agent: c.cfg.ID, Err: err}
	}
	if c.cfg.Verbose {
		forwardStderr(inv.Stderr, res.Stderr)
	}

	out, parseErr := ParseCodexOutput(res.Stdout)
	if res.ExitCode != 0 {
		if out != nil && out.Failure != "" {
			return nil, adapterError(c.cfg.ID, fmt.Errorf("codex exited with code %d: %s", res.ExitCode, out.Failure), res.ExitCode, res.Stderr+"\n"+out.Failure)
		}
		return nil, exitFailure(c.cfg.ID, c.cfg.Command, res)
	}
	if parseErr != nil {
		return nil, &domain.AdapterError{Agent: c.cfg.ID, Err: parseErr}
	}
	if out.Failure != "" && out.Text == "" {
		return nil, adapterError(c.cfg.ID, errors.New(out.Failure), 1, out.Failure)
	}

	return &domain.ReviewResult{
		Agent: c.cfg.ID,
		Model: inv.Model,
		Text:  out.Text,
		Usage: out.Usage,
	}, nil
}
