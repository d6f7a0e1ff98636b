package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// Compile-time interface check
var _ Adapter = (*FactoryAdapter)(nil)

// FactoryAdapter runs reviews through "droid exec".
type FactoryAdapter struct {
	cfg config.AgentConfig
}

// NewFactoryAdapter creates a FactoryAdapter.
func NewFactoryAdapter(cfg config.AgentConfig) *FactoryAdapter {
	return &FactoryAdapter{cfg: cfg}
}

// ID returns the agent id.
func (f *FactoryAdapter) ID() string {
	return f.cfg.ID
}

func (f *FactoryAdapter) outputFormat() string {
	if f.cfg.OutputFormat == "" {
		return "json"
	}
	return f.cfg.OutputFormat
}

// Args returns the command line for model; the prompt is read from stdin.
func (f *FactoryAdapter) Args(model string) []string {
	args := []string{"exec", "--output-format", f.outputFormat()}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, f.cfg.ExtraArgs...)
	return append(args, "-")
}

// Review pipes the prompt to droid and reads its result.
func (f *FactoryAdapter) Review(ctx context.Context, inv Invocation) (*domain.ReviewResult, error) {
	res, err := executeCommand(ctx, executeOptions{
		Command: f.cfg.Command,
		Args:    f.Args(inv.Model),
		Stdin:   bytes.NewReader([]byte(flatten(inv.Prompt))),
		WorkDir: inv.WorkDir,
	})
	if err != nil {
		return nil, &domain.AdapterError{Agent: f.cfg.ID, Err: err}
	}
	if f.cfg.Verbose {
		forwardStderr(inv.Stderr, res.Stderr)
	}
	if res.ExitCode != 0 {
		return nil, exitFailure(f.cfg.ID, f.cfg.Command, res)
	}

	result := &domain.ReviewResult{Agent: f.cfg.ID, Model: inv.Model}
	if f.outputFormat() != "json" {
		result.Text = strings.TrimSpace(string(res.Stdout))
		return result, nil
	}

	out, err := ParseFactoryOutput(res.Stdout)
	if err != nil {
		return nil, &domain.AdapterError{Agent: f.cfg.ID, Err: err}
	}
	if out.IsError {
		return nil, adapterError(f.cfg.ID, errors.New("droid reported an error: "+out.Result), 1, out.Result)
	}
	result.Text = strings.TrimSpace(out.Result)
	result.Usage = out.usage()
	return result, nil
}

// FactoryOutput is the JSON document printed by droid exec --output-format json.
type FactoryOutput struct {
	Type       string  `json:"type"`
	IsError    bool    `json:"is_error"`
	Result     string  `json:"result"`
	DurationMs int64   `json:"duration_ms"`
	CostUSD    float64 `json:"total_cost_usd"`
	Usage      *struct {
		InputTokens          int64 `json:"input_tokens"`
		OutputTokens         int64 `json:"output_tokens"`
		CacheReadInputTokens int64 `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

func (o *FactoryOutput) usage() *domain.Usage {
	if o.Usage == nil && o.DurationMs == 0 && o.CostUSD == 0 {
		return nil
	}
	u := &domain.Usage{DurationMs: o.DurationMs, CostUSD: o.CostUSD}
	if o.Usage != nil {
		u.InputTokens = o.Usage.InputTokens
		u.OutputTokens = o.Usage.OutputTokens
		u.CachedInputTokens = o.Usage.CacheReadInputTokens
	}
	return u
}

// ParseFactoryOutput decodes droid's JSON output. If stdout holds several
// JSON lines, the last result document wins.
func ParseFactoryOutput(data []byte) (*FactoryOutput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &FactoryOutput{}, nil
	}

	var out FactoryOutput
	if err := json.Unmarshal(trimmed, &out); err == nil {
		return &out, nil
	}

	var found *FactoryOutput
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		var candidate FactoryOutput
		if err := json.Unmarshal(bytes.TrimSpace(line), &candidate); err != nil {
			continue
		}
		if candidate.Type == "result" || candidate.Result != "" {
			found = &candidate
		}
	}
	if found == nil {
		return nil, errors.New("droid output is not valid JSON")
	}
	return found, nil
}
