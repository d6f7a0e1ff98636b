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
	"github.com/richhaase/interpeer/internal/prompt"
)

func factoryConfig(command string) config.AgentConfig {
	ac := config.Defaults().Agents[config.AgentFactory]
	ac.Command = command
	return ac
}

func TestFactoryAdapter_Args(t *testing.T) {
	ac := factoryConfig("droid")
	assert.Equal(t,
		[]string{"exec", "--output-format", "json", "--model", "claude-sonnet-4-5", "-"},
		NewFactoryAdapter(ac).Args("claude-sonnet-4-5"))

	ac.OutputFormat = "text"
	ac.ExtraArgs = []string{"--auto", "low"}
	assert.Equal(t,
		[]string{"exec", "--output-format", "text", "--auto", "low", "-"},
		NewFactoryAdapter(ac).Args(""))
}

func TestFactoryAdapter_ReviewJSON(t *testing.T) {
	argsCopy := filepath.Join(t.TempDir(), "args.txt")
	stub := writeStub(t, "droid", `echo "$@" > `+argsCopy+`
cat > /dev/null
echo '{"type":"result","is_error":false,"duration_ms":1200,"result":"  Ship it.  ","usage":{"input_tokens":50,"output_tokens":9}}'`)

	res, err := NewFactoryAdapter(factoryConfig(stub)).Review(context.Background(), Invocation{
		Model:  "m1",
		Prompt: prompt.Bundle{User: "review this"},
	})
	require.NoError(t, err)
	assert.Equal(t, "factory_droid", res.Agent)
	assert.Equal(t, "m1", res.Model)
	assert.Equal(t, "Ship it.", res.Text)
	assert.Equal(t, &domain.Usage{InputTokens: 50, OutputTokens: 9, DurationMs: 1200}, res.Usage)

	args, err := os.ReadFile(argsCopy)
	require.NoError(t, err)
	assert.Equal(t, "exec --output-format json --model m1 -", strings.TrimSpace(string(args)))
}

func TestFactoryAdapter_ReviewText(t *testing.T) {
	stub := writeStub(t, "droid", `cat > /dev/null; printf '\nplain review\n\n'`)
	ac := factoryConfig(stub)
	ac.OutputFormat = "text"

	res, err := NewFactoryAdapter(ac).Review(context.Background(), Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "plain review", res.Text)
	assert.Nil(t, res.Usage)
}

func TestFactoryAdapter_ReportedError(t *testing.T) {
	stub := writeStub(t, "droid", `echo '{"type":"result","is_error":true,"result":"model unavailable"}'`)

	_, err := NewFactoryAdapter(factoryConfig(stub)).Review(context.Background(), Invocation{})
	var ae *domain.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "factory_droid", ae.Agent)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestFactoryAdapter_InvalidJSON(t *testing.T) {
	stub := writeStub(t, "droid", `echo 'oops'`)

	_, err := NewFactoryAdapter(factoryConfig(stub)).Review(context.Background(), Invocation{})
	var ae *domain.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestParseFactoryOutput_JSONLines(t *testing.T) {
	out, err := ParseFactoryOutput([]byte(`{"type":"system","subtype":"init"}
{"type":"result","result":"final","total_cost_usd":0.02}`))
	require.NoError(t, err)
	assert.Equal(t, "final", out.Result)
	assert.Equal(t, &domain.Usage{CostUSD: 0.02}, out.usage())
}

func TestParseFactoryOutput_Empty(t *testing.T) {
	out, err := ParseFactoryOutput([]byte("\n"))
	require.NoError(t, err)
	assert.Empty(t, out.Result)
	assert.Nil(t, out.usage())
}
