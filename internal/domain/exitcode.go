// Package domain provides core types for the review router.
package domain

// ExitCode represents the exit status of the interpeer binaries.
type ExitCode int

const (
	// ExitOK indicates the command completed successfully.
	ExitOK ExitCode = 0
	// ExitError indicates the command failed due to an error.
	ExitError ExitCode = 1
	// ExitUsage indicates invalid flags or arguments.
	ExitUsage ExitCode = 2
	// ExitInterrupted indicates the process was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}
