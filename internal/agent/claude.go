package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	claudeagent "github.com/roasbeef/claude-agent-sdk-go"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// Compile-time interface check
var _ Adapter = (*ClaudeAdapter)(nil)

// reviewerMaxTurns caps the SDK session; a review needs a few file reads at most.
const reviewerMaxTurns = 8

// readOnlyTools are the tools a reviewer session may use.
var readOnlyTools = map[string]bool{
	"Read": true,
	"Glob": true,
	"Grep": true,
	"LS":   true,
}

// ClaudeAdapter runs reviews through the Claude Agent SDK.
type ClaudeAdapter struct {
	cfg config.AgentConfig
}

// NewClaudeAdapter creates a ClaudeAdapter.
func NewClaudeAdapter(cfg config.AgentConfig) *ClaudeAdapter {
	return &ClaudeAdapter{cfg: cfg}
}

// ID returns the agent id.
func (c *ClaudeAdapter) ID() string {
	return c.cfg.ID
}

// options builds the SDK client options for one invocation.
func (c *ClaudeAdapter) options(inv Invocation) []claudeagent.Option {
	opts := []claudeagent.Option{
		claudeagent.WithNoSessionPersistence(),
		claudeagent.WithMaxTurns(reviewerMaxTurns),
		claudeagent.WithCanUseTool(reviewerPermissionPolicy),
	}
	if inv.Model != "" {
		opts = append(opts, claudeagent.WithModel(inv.Model))
	}
	if inv.Prompt.System != "" {
		opts = append(opts, claudeagent.WithSystemPrompt(inv.Prompt.System))
	}
	if inv.WorkDir != "" {
		opts = append(opts, claudeagent.WithCwd(inv.WorkDir))
	}
	// An explicitly empty list isolates the session from user and project
	// settings. Otherwise the SDK default sources apply.
	if c.cfg.SettingSources != nil && len(c.cfg.SettingSources) == 0 {
		opts = append(opts,
			claudeagent.WithSettingSources(nil),
			claudeagent.WithSkillsDisabled(),
		)
	}
	if c.cfg.Command != "" && c.cfg.Command != "claude" {
		opts = append(opts, claudeagent.WithCLIPath(c.cfg.Command))
	}
	if inv.Stderr != nil && c.cfg.Verbose {
		sink := inv.Stderr
		opts = append(opts, claudeagent.WithStderr(func(data string) {
			forwardStderr(sink, data)
		}))
	}
	return opts
}

// Review runs a single SDK query and collects the final result.
func (c *ClaudeAdapter) Review(ctx context.Context, inv Invocation) (*domain.ReviewResult, error) {
	client, err := claudeagent.NewClient(c.options(inv)...)
	if err != nil {
		return nil, c.wrap(fmt.Errorf("create claude client: %w", err))
	}
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return nil, c.wrap(fmt.Errorf("connect to claude CLI: %w", err))
	}

	var col claudeCollector
	for msg := range client.Query(ctx, inv.Prompt.User) {
		col.observe(msg)
	}
	if err := ctx.Err(); err != nil {
		return nil, c.wrap(fmt.Errorf("claude query interrupted: %w", err))
	}
	if col.err != nil {
		return nil, c.wrap(col.err)
	}

	return &domain.ReviewResult{
		Agent: c.cfg.ID,
		Model: inv.Model,
		Text:  col.text(),
		Usage: col.usage,
	}, nil
}

func (c *ClaudeAdapter) wrap(err error) error {
	ae := &domain.AdapterError{Agent: c.cfg.ID, Err: err}
	switch {
	case errors.Is(err, exec.ErrNotFound):
		ae.Hint = InstallHint(c.cfg.ID, c.cfg.Command)
	case IsAuthFailure(c.cfg.ID, 1, err.Error()):
		ae.Hint = AuthHint(c.cfg.ID)
	}
	return ae
}

// claudeCollector accumulates SDK messages into a review.
type claudeCollector struct {
	lastText  string
	result    string
	gotResult bool
	usage     *domain.Usage
	err       error
}

func (c *claudeCollector) observe(msg any) {
	switch m := msg.(type) {
	case claudeagent.AssistantMessage:
		if text := m.ContentText(); strings.TrimSpace(text) != "" {
			c.lastText = text
		}
	case claudeagent.ResultMessage:
		c.gotResult = true
		c.result = m.Result
		c.usage = &domain.Usage{
			CostUSD:    m.TotalCostUSD,
			DurationMs: int64(m.DurationMs),
		}
		if m.IsError {
			detail := m.Result
			if len(m.Errors) > 0 {
				detail = fmt.Sprintf("%v", m.Errors)
			}
			c.err = fmt.Errorf("claude session failed: %s", detail)
		}
	}
}

// text prefers the result message and falls back to the last assistant turn.
func (c *claudeCollector) text() string {
	if c.gotResult && strings.TrimSpace(c.result) != "" {
		return strings.TrimSpace(c.result)
	}
	return strings.TrimSpace(c.lastText)
}

// reviewerPermissionPolicy allows read-only tools and denies everything else.
func reviewerPermissionPolicy(_ context.Context, req claudeagent.ToolPermissionRequest) claudeagent.PermissionResult {
	if readOnlyTools[req.ToolName] {
		return claudeagent.PermissionAllow{}
	}
	return claudeagent.PermissionDeny{
		Reason: fmt.Sprintf("tool %q is not allowed in read-only review mode", req.ToolName),
	}
}
