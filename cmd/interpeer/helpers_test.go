package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDuplicateFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "distinct flags", args: []string{"add-agent", "--id", "a", "--command", "b"}},
		{name: "repeatable arg", args: []string{"add-agent", "--arg", "x", "--arg=y"}},
		{name: "duplicate separate value", args: []string{"--id", "a", "--id", "b"}, wantErr: true},
		{name: "duplicate equals form", args: []string{"--model=a", "--model", "b"}, wantErr: true},
		{name: "value looks like flag", args: []string{"--arg", "--model", "--model", "x"}},
		{name: "after terminator", args: []string{"--id", "a", "--", "--id"}},
		{name: "bool flag does not consume", args: []string{"--help", "--id", "a"}},
		{name: "persistent flag twice", args: []string{"--project-root", "a", "list", "--project-root", "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkDuplicateFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				assert.IsType(t, usageError{}, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
