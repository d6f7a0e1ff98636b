package agent

import (
	"slices"
	"strings"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

// authExitCodes maps agent ids to known authentication failure exit codes.
var authExitCodes = map[string][]int{}

// authStderrPatterns contains substrings that indicate authentication failure
// when found in stderr output (checked case-insensitively).
var authStderrPatterns = []string{
	"api_key",
	"api key",
	"unauthorized",
	" 401",
	"authentication required",
	"invalid credentials",
	"not logged in",
	"please log in",
}

// authHints maps agent ids to actionable error messages shown on auth failure.
var authHints = map[string]string{
	config.AgentClaude:  "Run 'claude login' or set ANTHROPIC_API_KEY.",
	config.AgentCodex:   "Set OPENAI_API_KEY or run 'codex login' to authenticate.",
	config.AgentFactory: "Set FACTORY_API_KEY or run 'droid' once to sign in.",
}

// installHints maps agent ids to install instructions shown when the command
// cannot be found.
var installHints = map[string]string{
	config.AgentClaude:  "Install with 'npm install -g @anthropic-ai/claude-code'.",
	config.AgentCodex:   "Install with 'npm install -g @openai/codex'.",
	config.AgentFactory: "Install with 'curl -fsSL https://app.factory.ai/cli | sh'.",
}

// IsAuthFailure returns true if the given exit code and stderr indicate
// an authentication failure for the agent. Exit code 0 is never
// considered an auth failure.
func IsAuthFailure(agentID string, exitCode int, stderr string) bool {
	if exitCode == 0 {
		return false
	}

	if codes, ok := authExitCodes[agentID]; ok {
		if slices.Contains(codes, exitCode) {
			return true
		}
	}

	lower := strings.ToLower(stderr)
	for _, pattern := range authStderrPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// AuthHint returns an actionable error message for the agent.
// Returns a generic hint for unknown agents.
func AuthHint(agentID string) string {
	if hint, ok := authHints[agentID]; ok {
		return hint
	}
	return "Check your authentication configuration for " + agentID + "."
}

// InstallHint returns install guidance for the agent's command.
func InstallHint(agentID, command string) string {
	if hint, ok := installHints[agentID]; ok {
		return hint
	}
	return "Check that " + command + " is installed and on PATH, or set its command in the interpeer config."
}

func adapterError(agentID string, err error, exitCode int, stderr string) *domain.AdapterError {
	ae := &domain.AdapterError{Agent: agentID, Err: err}
	if IsAuthFailure(agentID, exitCode, stderr) {
		ae.Hint = AuthHint(agentID)
	}
	return ae
}
