package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// killGrace bounds how long Wait blocks on output pipes after the process
// group has been killed.
const killGrace = 2 * time.Second

// executeOptions configures a CLI invocation.
type executeOptions struct {
	// Command is the executable name or path.
	Command string
	Args    []string
	// Stdin provides input to the command (typically the prompt).
	Stdin   io.Reader
	WorkDir string
}

// execution is a finished subprocess.
type execution struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// executeCommand runs a command to completion in its own process group.
// A non-zero exit is reported through ExitCode, not as an error. Errors are
// returned when the command cannot be started or ctx ends first; in the
// latter case the whole process group is killed.
func executeCommand(ctx context.Context, opts executeOptions) (*execution, error) {
	// #nosec G204 - command comes from the resolved agent config, not request input.
	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	// Set process group so cancellation reaches grandchildren too
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid targets the group; the process may already be gone
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killGrace

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command, err)
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", opts.Command, ctxErr)
	}

	res := &execution{Stdout: stdout.Bytes(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed waiting for %s: %w", opts.Command, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

// forwardStderr sends each non-empty stderr line to sink.
func forwardStderr(sink func(string), stderr string) {
	if sink == nil {
		return
	}
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sink(line)
		}
	}
}

// lastLines returns at most n trailing non-empty lines of s.
func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// exitFailure builds the AdapterError for a CLI that exited non-zero.
func exitFailure(agentID, command string, res *execution) error {
	msg := fmt.Sprintf("%s exited with code %d", command, res.ExitCode)
	if tail := lastLines(res.Stderr, 5); tail != "" {
		msg += ": " + tail
	}
	return adapterError(agentID, errors.New(msg), res.ExitCode, res.Stderr)
}
