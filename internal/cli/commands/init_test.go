package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
)

// runInitIn runs init inside a fresh temp directory and returns its output
func runInitIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	var out bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	return cfg
}

func TestInitCommand_NewConfig(t *testing.T) {
	dir := t.TempDir()

	out, err := runInitIn(t, dir, "https://inkdesk.example.com/api/")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Created ./inkdesk.json")
	assert.Contains(t, out, "inkdesk login")

	cfg := loadConfig(t, dir)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "https://inkdesk.example.com/api", cfg.Servers[0].URL)
	assert.Equal(t, "server-1", cfg.Servers[0].Alias)
}

func TestInitCommand_CustomAlias(t *testing.T) {
	dir := t.TempDir()

	_, err := runInitIn(t, dir, "http://localhost:8000/api", "--alias", "local")
	require.NoError(t, err)

	cfg := loadConfig(t, dir)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "local", cfg.Servers[0].Alias)
}

func TestInitCommand_AddSecondServer(t *testing.T) {
	dir := t.TempDir()

	_, err := runInitIn(t, dir, "http://localhost:8000/api")
	require.NoError(t, err)

	out, err := runInitIn(t, dir, "https://inkdesk.example.com/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Found existing inkdesk.json")
	assert.Contains(t, out, "✓ Added server https://inkdesk.example.com/api (server-2)")

	cfg := loadConfig(t, dir)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, "server-1", cfg.Servers[0].Alias)
	assert.Equal(t, "server-2", cfg.Servers[1].Alias)
}

func TestInitCommand_DuplicateServer(t *testing.T) {
	dir := t.TempDir()

	_, err := runInitIn(t, dir, "http://localhost:8000/api")
	require.NoError(t, err)

	out, err := runInitIn(t, dir, "http://localhost:8000/api/")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	assert.Len(t, loadConfig(t, dir).Servers, 1)
}

func TestInitCommand_AliasInUse(t *testing.T) {
	dir := t.TempDir()

	_, err := runInitIn(t, dir, "http://localhost:8000/api", "--alias", "prod")
	require.NoError(t, err)

	_, err = runInitIn(t, dir, "https://inkdesk.example.com/api", "--alias", "prod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias 'prod' is already used")
}

func TestInitCommand_InvalidURL(t *testing.T) {
	dir := t.TempDir()

	_, err := runInitIn(t, dir, "inkdesk.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server URL")

	_, statErr := os.Stat(filepath.Join(dir, config.ConfigFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitCommand_MissingArgument(t *testing.T) {
	_, err := runInitIn(t, t.TempDir())
	assert.Error(t, err)
}

func TestInitCommand_PreservesExistingConfig(t *testing.T) {
	dir := t.TempDir()

	existing := `{
  "servers": [
    {"url": "https://staging.example.com/api", "alias": "staging"}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(existing), 0644))

	_, err := runInitIn(t, dir, "https://inkdesk.example.com/api", "--alias", "prod")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)

	var raw map[string][]map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["servers"], 2)
	assert.Equal(t, "staging", raw["servers"][0]["alias"])
	assert.Equal(t, "prod", raw["servers"][1]["alias"])
}
