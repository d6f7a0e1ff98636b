package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCommand(t *testing.T) {
	res, err := executeCommand(context.Background(), executeOptions{
		Command: "echo",
		Args:    []string{"hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecuteCommand_WithStdin(t *testing.T) {
	res, err := executeCommand(context.Background(), executeOptions{
		Command: "cat",
		Stdin:   strings.NewReader("test input"),
	})
	require.NoError(t, err)
	assert.Equal(t, "test input", string(res.Stdout))
}

func TestExecuteCommand_ExitCodeAndStderr(t *testing.T) {
	res, err := executeCommand(context.Background(), executeOptions{
		Command: "sh",
		Args:    []string{"-c", "echo error message >&2; exit 42"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res.ExitCode)
	assert.Contains(t, res.Stderr, "error message")
}

func TestExecuteCommand_InvalidCommand(t *testing.T) {
	_, err := executeCommand(context.Background(), executeOptions{
		Command: "nonexistent-command-12345",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestExecuteCommand_WorkDir(t *testing.T) {
	res, err := executeCommand(context.Background(), executeOptions{
		Command: "pwd",
		WorkDir: "/tmp",
	})
	require.NoError(t, err)

	// On macOS, /tmp is a symlink to /private/tmp
	out := strings.TrimSpace(string(res.Stdout))
	assert.Contains(t, []string{"/tmp", "/private/tmp"}, out)
}

func TestExecuteCommand_ContextCancellationKillsGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	// The grandchild sleep holds stdout open; killing only the shell would hang.
	_, err := executeCommand(ctx, executeOptions{
		Command: "sh",
		Args:    []string{"-c", "sleep 10 & wait"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "", lastLines("  \n", 3))
	assert.Equal(t, "c\nd", lastLines("a\nb\n\nc\nd\n", 2))
}

func TestForwardStderr(t *testing.T) {
	var got []string
	forwardStderr(func(s string) { got = append(got, s) }, "one\n\n  two  \n")
	assert.Equal(t, []string{"one", "two"}, got)

	forwardStderr(nil, "ignored")
}

func TestExitFailure(t *testing.T) {
	err := exitFailure("codex_cli", "codex", &execution{ExitCode: 3, Stderr: "boom\n"})
	assert.EqualError(t, err, "codex_cli: codex exited with code 3: boom")

	err = exitFailure("codex_cli", "codex", &execution{ExitCode: 1, Stderr: "Error: Unauthorized"})
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
