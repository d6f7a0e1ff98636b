package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/interpeer/internal/domain"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_NoFile(t *testing.T) {
	root := t.TempDir()
	res, err := Load(root, MapLookup(nil), Overrides{})
	require.NoError(t, err)

	assert.Nil(t, res.File)
	assert.Empty(t, res.Path)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, Defaults(), res.Config)
}

func TestLoad_PrimaryFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, PrimaryPath(root), `{"agents": {"claude": {"model": "opus"}}}`)

	res, err := Load(root, MapLookup(nil), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, PrimaryPath(root), res.Path)
	assert.Equal(t, "opus", res.Config.Agents[AgentClaude].Model)

	res, err = Load(root, MapLookup(map[string]string{"INTERPEER_CLAUDE_MODEL": "haiku"}), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "haiku", res.Config.Agents[AgentClaude].Model)
}

func TestLoad_LegacyFileWarns(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, LegacyPath(root), `{"cache": {"maxEntries": 7}}`)

	res, err := Load(root, MapLookup(nil), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, LegacyPath(root), res.Path)
	assert.Equal(t, 7, res.Config.Cache.MaxEntries)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "deprecated")
}

func TestLoad_PrimaryWinsOverLegacy(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, PrimaryPath(root), `{"cache": {"maxEntries": 3}}`)
	writeConfig(t, LegacyPath(root), `{"cache": {"maxEntries": 7}}`)

	res, err := Load(root, MapLookup(nil), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Config.Cache.MaxEntries)
	assert.Empty(t, res.Warnings)
}

func TestLoad_MalformedImplicitFileIsIgnored(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, PrimaryPath(root), `{"agents": {`)

	res, err := Load(root, MapLookup(nil), Overrides{})
	require.NoError(t, err)
	assert.Nil(t, res.File)
	assert.Equal(t, Defaults(), res.Config)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ignoring config file")
}

func TestLoad_MalformedExplicitFileIsError(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, "custom.json"), `not json`)

	_, err := Load(root, MapLookup(map[string]string{"INTERPEER_CONFIG_PATH": "custom.json"}), Overrides{})
	require.Error(t, err)

	var ce *domain.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, filepath.Join(root, "custom.json"), ce.Path)
}

func TestLoad_MissingExplicitFileWarns(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "nope.json")

	res, err := Load(root, MapLookup(map[string]string{"INTERPEER_CONFIG_PATH": abs}), Overrides{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "not found")
}

func TestLoad_ExplicitYAML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "conf", "interpeer.yaml")
	writeConfig(t, path, "defaults:\n  agent: factory\n")

	res, err := Load(root, MapLookup(map[string]string{"INTERPEER_CONFIG_PATH": "conf/interpeer.yaml"}), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, AgentFactory, res.Config.Defaults.Agent)
}

func TestLoad_InvalidResolvedConfig(t *testing.T) {
	const invalid = `{"agents": {"codex": {"retry": {"maxAttempts": 0}}}}`
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		wantWarning string
	}{
		{name: "implicit file is ignored", file: "primary", wantWarning: "ignoring config file"},
		{name: "explicit file is error", file: "explicit", env: map[string]string{"INTERPEER_CONFIG_PATH": "custom.json"}, wantErr: true},
		{name: "invalid env is error", env: map[string]string{"INTERPEER_CODEX_MAX_ATTEMPTS": "0"}, wantErr: true},
		{name: "implicit file with invalid env is error", file: "primary", env: map[string]string{"INTERPEER_CODEX_MAX_ATTEMPTS": "0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			switch tt.file {
			case "primary":
				writeConfig(t, PrimaryPath(root), invalid)
			case "explicit":
				writeConfig(t, filepath.Join(root, "custom.json"), invalid)
			}

			res, err := Load(root, MapLookup(tt.env), Overrides{})
			if tt.wantErr {
				var ce *domain.ConfigError
				require.ErrorAs(t, err, &ce)
				assert.Contains(t, err.Error(), "maxAttempts must be >= 1")
				return
			}
			require.NoError(t, err)
			assert.Nil(t, res.File)
			assert.Empty(t, res.Path)
			assert.Equal(t, Defaults(), res.Config)
			require.Len(t, res.Warnings, 1)
			assert.Contains(t, res.Warnings[0], tt.wantWarning)
			assert.Contains(t, res.Warnings[0], PrimaryPath(root))
		})
	}
}

func TestLoad_CollectsWarnings(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, PrimaryPath(root), `{"cach": {}}`)

	res, err := Load(root, MapLookup(map[string]string{"INTERPEER_CACHE_TTL_MS": "soon"}), Overrides{})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
}

func TestLoad_OverridesApplyLast(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, PrimaryPath(root), `{"defaults": {"agent": "factory"}}`)

	res, err := Load(root, MapLookup(map[string]string{"INTERPEER_DEFAULT_AGENT": "claude"}), Overrides{Agent: "codex_cli"})
	require.NoError(t, err)
	assert.Equal(t, AgentCodex, res.Config.Defaults.Agent)
}
