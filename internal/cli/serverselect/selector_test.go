package serverselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
	"github.com/inkdesk-dev/inkdesk/internal/cli/userconfig"
)

func twoServers() *config.Config {
	return &config.Config{Servers: []config.Server{
		{Alias: "local", URL: "http://localhost:8000/api"},
		{Alias: "prod", URL: "https://inkdesk.example.com/api"},
	}}
}

func TestResolveServer_Flag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	server, err := ResolveServer(twoServers(), "prod")
	require.NoError(t, err)
	assert.Equal(t, "https://inkdesk.example.com/api", server.URL)

	_, err = ResolveServer(twoServers(), "staging")
	assert.Error(t, err)
}

func TestResolveServer_SelectedServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://inkdesk.example.com/api"))

	server, err := ResolveServer(twoServers(), "")
	require.NoError(t, err)
	assert.Equal(t, "prod", server.Alias)
}

func TestResolveServer_MatchesNormalizedURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://InkDesk.example.com/api/"))

	server, err := ResolveServer(twoServers(), "")
	require.NoError(t, err)
	assert.Equal(t, "prod", server.Alias)

	server, err = ResolveServer(twoServers(), "http://localhost:8000/api/")
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)
}

func TestResolveServer_SingleServerIsRemembered(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("http://gone.example.com/api"))

	cfg := &config.Config{Servers: []config.Server{{Alias: "local", URL: "http://localhost:8000/api"}}}

	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)

	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", selected)
}

func TestPromptServerSelection_NoServers(t *testing.T) {
	_, err := PromptServerSelection(&config.Config{})
	assert.Error(t, err)
}
