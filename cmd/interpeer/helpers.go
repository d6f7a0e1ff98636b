package main

import (
	"fmt"
	"strings"
)

// usageError marks errors caused by invalid flags or arguments.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// boolFlags never consume the following argument.
var boolFlags = map[string]bool{"help": true, "version": true}

// repeatableFlags may appear more than once.
var repeatableFlags = map[string]bool{"arg": true}

// checkDuplicateFlags rejects a long flag given twice. pflag silently keeps
// the last value, which hides typos in scripted invocations.
func checkDuplicateFlags(args []string) error {
	seen := make(map[string]bool)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return nil
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if seen[name] && !repeatableFlags[name] {
			return usageErrorf("flag --%s given more than once", name)
		}
		seen[name] = true
		if !hasValue && !boolFlags[name] {
			i++
		}
	}
	return nil
}
