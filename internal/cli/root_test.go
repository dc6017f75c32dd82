package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdesk-dev/inkdesk/internal/cli/app"
	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
	"github.com/inkdesk-dev/inkdesk/internal/cli/commands"
	"github.com/inkdesk-dev/inkdesk/internal/cli/router"
	"github.com/inkdesk-dev/inkdesk/internal/config"
	"github.com/inkdesk-dev/inkdesk/internal/mockapi"
)

type harness struct {
	t      *testing.T
	tokens *auth.MemoryStore
}

// newHarness starts the mock backend and points the CLI at it through INKDESK_API_BASE
func newHarness(t *testing.T) *harness {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	srv, err := mockapi.New(&config.Config{
		Database: config.DatabaseConfig{URL: "file:" + name + "?mode=memory&cache=shared"},
		Auth: config.AuthConfig{
			JWTSecret:      "cli-test-secret",
			TokenTTL:       time.Hour,
			AdminPassword:  "admin-pass",
			EditorPassword: "editor-pass",
		},
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("INKDESK_API_BASE", ts.URL+"/api")
	t.Setenv("INKDESK_USERNAME", "")
	t.Setenv("INKDESK_PASSWORD", "")
	t.Setenv("LOG_LEVEL", "off")

	return &harness{t: t, tokens: auth.NewMemoryStore()}
}

// run executes one CLI invocation; the token store survives between invocations
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()

	g := &commands.Globals{Options: &app.Options{Tokens: h.tokens}}
	cmd := NewRootCmd(g)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (h *harness) login(username, password string) {
	h.t.Helper()
	_, _, err := h.run("login", "--username", username, "--password", password, "--no-open")
	require.NoError(h.t, err)
}

func TestCLI_LoginAndWhoami(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "--username", "editor", "--password", "editor-pass", "--no-open")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Login successful!")
	assert.Contains(t, out, "User: Eddie Editor")
	assert.NotContains(t, out, "Role: Admin")

	out, _, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Server:   env")
	assert.Contains(t, out, "User:     editor")
	assert.Contains(t, out, "Email:    editor@inkdesk.local")
	assert.Contains(t, out, "Expires:")
}

func TestCLI_LoginRejected(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("login", "--username", "editor", "--password", "wrong", "--no-open")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Contains(t, err.Error(), "Incorrect username or password")

	token, _ := h.tokens.Get()
	assert.Empty(t, token)
}

func TestCLI_LoginRedirectsToIntendedPage(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "--username", "admin", "--password", "admin-pass", "--redirect", "/users")
	require.NoError(t, err)
	assert.Contains(t, out, "Role: Admin")
	assert.Contains(t, out, "editor@inkdesk.local")
	assert.Contains(t, out, "Total: 2")
}

func TestCLI_LoginDefaultsToDashboard(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "--username", "editor", "--password", "editor-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Eddie Editor")
	assert.Contains(t, out, "Material packs")
}

func TestCLI_UnauthenticatedShowsLoginHint(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("articles", "ls")
	require.ErrorIs(t, err, router.ErrLoginRequired)
	assert.Contains(t, out, "inkdesk login --redirect /articles")
}

func TestCLI_RejectedTokenIsCleared(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.Set("not-a-valid-token"))

	out, _, err := h.run("hotspots", "ls", "--limit", "2")
	require.ErrorIs(t, err, router.ErrLoginRequired)
	assert.Contains(t, out, "inkdesk login --redirect")

	token, _ := h.tokens.Get()
	assert.Empty(t, token)
}

func TestCLI_RoleGateFallsBackToDashboard(t *testing.T) {
	h := newHarness(t)
	h.login("editor", "editor-pass")

	out, errOut, err := h.run("users", "ls")
	require.NoError(t, err)
	assert.Contains(t, errOut, "⚠ "+router.ForbiddenWarning)
	assert.Contains(t, out, "Welcome, Eddie Editor")
	assert.NotContains(t, out, "Total:")
}

func TestCLI_EditorSeesOwnContent(t *testing.T) {
	h := newHarness(t)
	h.login("editor", "editor-pass")

	out, _, err := h.run("datasources", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Market feed")
	assert.NotContains(t, out, "Tech news")

	out, _, err = h.run("articles", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning brief")
	assert.NotContains(t, out, "Chip export rules, explained")

	_, _, err = h.run("articles", "get", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Article not found")
}

func TestCLI_HotspotsAndPacks(t *testing.T) {
	h := newHarness(t)
	h.login("admin", "admin-pass")

	out, _, err := h.run("hotspots", "ls", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Chip export rules tightened")
	assert.NotContains(t, out, "Central bank holds rates")

	out, _, err = h.run("materials", "packs", "--keyword", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Export rules")
	assert.Contains(t, out, "Showing 1 of 1")

	out, _, err = h.run("open", "/materials/packs/1")
	require.NoError(t, err)
	assert.Contains(t, out, "Export rules (1 items)")
}

func TestCLI_TriggerDataSource(t *testing.T) {
	h := newHarness(t)
	h.login("admin", "admin-pass")

	out, _, err := h.run("datasources", "trigger", "1", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Triggered data source 1 (Tech news)")
}

func TestCLI_CollectIntoPack(t *testing.T) {
	h := newHarness(t)
	h.login("editor", "editor-pass")

	file := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
- item_type: quote
  text: "Markets opened higher."
- item_type: quote
  text: "Markets  opened higher."
- item_type: fact
  text: Oil fell two percent
`), 0644))

	out, _, err := h.run("materials", "collect", file, "--pack", "2", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 items would be added to pack 2")

	out, _, err = h.run("materials", "collect", file, "--pack", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Added 2 items to pack 2")

	out, _, err = h.run("materials", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning brief sources (2 items)")
	assert.Contains(t, out, "Oil fell two percent")
}

func TestCLI_Logout(t *testing.T) {
	h := newHarness(t)
	h.login("editor", "editor-pass")

	out, _, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out of env")

	out, _, err = h.run("whoami")
	require.ErrorIs(t, err, router.ErrLoginRequired)
	assert.Contains(t, out, "Not logged in")
}

func TestCLI_DashPrintsConsoleURL(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("dash", "/articles/3", "--print")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "/articles/3"))
	assert.NotContains(t, out, "/api/")
}

func TestCLI_CrawlRecordsAndPublish(t *testing.T) {
	h := newHarness(t)
	h.login("editor", "editor-pass")

	out, _, err := h.run("crawls", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Market feed")
	assert.Contains(t, out, "Markets open")
	assert.NotContains(t, out, "Export rules take effect")
	assert.Contains(t, out, "Showing 1 of 1")

	_, _, err = h.run("crawls", "show", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Crawl record not found")

	out, _, err = h.run("publish", "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "Markets desk")
	assert.NotContains(t, out, "Tech weekly")
	assert.NotContains(t, out, "has no terminal view")
}

func TestCLI_CrawlRecordDetail(t *testing.T) {
	h := newHarness(t)
	h.login("admin", "admin-pass")

	out, _, err := h.run("crawls", "ls", "--source", "1", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Export rules take effect")
	assert.Contains(t, out, "Showing 1 of 2")

	out, _, err = h.run("crawls", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "# Export rules take effect")
	assert.Contains(t, out, "ninety days to comply")
}
