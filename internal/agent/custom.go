package agent

import (
	"bytes"
	"context"
	"strings"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// Compile-time interface check
var _ Adapter = (*CustomAdapter)(nil)

// modelPlaceholder is replaced by the requested model in custom agent args.
const modelPlaceholder = "{model}"

// CustomAdapter runs a user-defined CLI: the prompt goes to stdin and stdout
// is the review.
type CustomAdapter struct {
	cfg config.AgentConfig
}

// NewCustomAdapter creates a CustomAdapter.
func NewCustomAdapter(cfg config.AgentConfig) *CustomAdapter {
	return &CustomAdapter{cfg: cfg}
}

// ID returns the agent id.
func (c *CustomAdapter) ID() string {
	return c.cfg.ID
}

// Args expands the argument template. An argument that is exactly the
// placeholder is dropped along with a directly preceding flag when model is
// empty, so "--model {model}" disappears cleanly.
func (c *CustomAdapter) Args(model string) []string {
	var args []string
	for _, a := range c.cfg.Args {
		if a == modelPlaceholder && model == "" {
			if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "-") {
				args = args[:n-1]
			}
			continue
		}
		args = append(args, strings.ReplaceAll(a, modelPlaceholder, model))
	}
	return append(args, c.cfg.ExtraArgs...)
}

// Review runs the command with the prompt on stdin.
func (c *CustomAdapter) Review(ctx context.Context, inv Invocation) (*domain.ReviewResult, error) {
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
	if res.ExitCode != 0 {
		return nil, exitFailure(c.cfg.ID, c.cfg.Command, res)
	}
	return &domain.ReviewResult{
		Agent: c.cfg.ID,
		Model: inv.Model,
		Text:  strings.TrimSpace(string(res.Stdout)),
	}, nil
}
