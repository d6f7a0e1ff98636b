package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAgentGroupedUsage(t *testing.T) {
	cmd := newAddAgentCmd(&app{})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	require.NoError(t, cmd.Usage())
	output := buf.String()

	agentIdx := strings.Index(output, "Agent:")
	retryIdx := strings.Index(output, "Retry:")
	require.NotEqual(t, -1, agentIdx, output)
	require.NotEqual(t, -1, retryIdx, output)
	assert.Less(t, agentIdx, retryIdx)

	commandIdx := strings.Index(output, "--command")
	attemptsIdx := strings.Index(output, "--max-attempts")
	assert.True(t, commandIdx > agentIdx && commandIdx < retryIdx, "expected --command under Agent")
	assert.Greater(t, attemptsIdx, retryIdx, "expected --max-attempts under Retry")
}
