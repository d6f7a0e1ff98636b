package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
)

func TestProber_SkipsSDKAgents(t *testing.T) {
	p := NewProber()
	ac := config.Defaults().Agents[config.AgentClaude]
	ac.Command = "/definitely/not/here"

	require.NoError(t, p.Ensure(context.Background(), ac))
	assert.False(t, p.Checked(ac.ID))
}

func TestProber_MemoizesSuccess(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "calls")
	stub := writeStub(t, "codex", `echo x >> `+counter+`; echo "codex 1.0"`)
	ac := codexConfig(stub)
	p := NewProber()

	require.NoError(t, p.Ensure(context.Background(), ac))
	require.NoError(t, p.Ensure(context.Background(), ac))
	assert.True(t, p.Checked(ac.ID))

	data, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "x"))

	// Remains available even once the binary is gone
	require.NoError(t, os.Remove(stub))
	assert.NoError(t, p.Ensure(context.Background(), ac))

	p.Reset()
	assert.Error(t, p.Ensure(context.Background(), ac))
}

func TestProber_MissingCommand(t *testing.T) {
	ac := codexConfig("interpeer-missing-binary-12345")

	err := NewProber().Ensure(context.Background(), ac)
	var av *domain.AvailabilityError
	require.ErrorAs(t, err, &av)
	assert.Equal(t, "codex_cli", av.Agent)
	assert.Equal(t, InstallHint("codex_cli", ac.Command), av.Hint)
	assert.Contains(t, err.Error(), "is not available")
}

func TestProber_FailureIsNotMemoized(t *testing.T) {
	dir := t.TempDir()
	flag := filepath.Join(dir, "ok")
	stub := writeStub(t, "droid", `[ -f `+flag+` ] || { echo "not logged in" >&2; exit 1; }`)
	ac := factoryConfig(stub)
	p := NewProber()

	err := p.Ensure(context.Background(), ac)
	var av *domain.AvailabilityError
	require.ErrorAs(t, err, &av)
	assert.Equal(t, AuthHint("factory_droid"), av.Hint)
	assert.False(t, p.Checked(ac.ID))

	require.NoError(t, os.WriteFile(flag, nil, 0o644))
	assert.NoError(t, p.Ensure(context.Background(), ac))
}
