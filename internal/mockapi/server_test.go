package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdesk-dev/inkdesk/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return &config.Config{
		Server:   config.ServerConfig{Addr: "127.0.0.1:0", AllowOrigins: []string{"http://localhost:5173"}},
		Database: config.DatabaseConfig{URL: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			AdminPassword:  "admin-pass",
			EditorPassword: "editor-pass",
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var obj map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &obj)
	return rec.Code, obj, rec.Body.Bytes()
}

func login(t *testing.T, srv *Server, username, password string) string {
	t.Helper()
	status, body, _ := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": AdminUsername,
		"password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bearer", body["token_type"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["role"])
	assert.NotContains(t, user, "password_hash")
	assert.Contains(t, body["menus"], "users")

	status, body, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": AdminUsername,
		"password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Incorrect username or password", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.IsType(t, []any{}, body["detail"])
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := doJSON(t, srv, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/auth/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token is invalid or expired", body["detail"])

	token := login(t, srv, EditorUsername, "editor-pass")
	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, EditorUsername, body["user"].(map[string]any)["username"])
	assert.NotContains(t, body["menus"], "users")
}

func TestUsers_AdminOnly(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := doJSON(t, srv, http.MethodGet, "/api/users", login(t, srv, EditorUsername, "editor-pass"), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin privileges required", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/users", login(t, srv, AdminUsername, "admin-pass"), nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])
}

func TestDataSources_OwnershipAndTrigger(t *testing.T) {
	srv := newTestServer(t)
	fixed := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	srv.now = func() time.Time { return fixed }

	admin := login(t, srv, AdminUsername, "admin-pass")
	editor := login(t, srv, EditorUsername, "editor-pass")

	var sources []map[string]any
	status, _, raw := doJSON(t, srv, http.MethodGet, "/api/datasources", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sources))
	assert.Len(t, sources, 2)

	status, _, raw = doJSON(t, srv, http.MethodGet, "/api/datasources", editor, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, "Market feed", sources[0]["name"])

	status, body, _ := doJSON(t, srv, http.MethodPost, "/api/datasources/1/trigger?force=true", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-05-01T07:30:00Z", body["last_run_at"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["next_run_at"])

	status, body, _ = doJSON(t, srv, http.MethodPost, "/api/datasources/1/trigger", editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Data source not found", body["detail"])
}

func TestDailyHotspots(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, EditorUsername, "editor-pass")
	today := time.Now().Format(time.DateOnly)

	status, body, _ := doJSON(t, srv, http.MethodGet, "/api/daily-hotspots/?limit=2", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, today, body["day"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Chip export rules tightened", items[0].(map[string]any)["title"])

	status, _, _ = doJSON(t, srv, http.MethodGet, "/api/daily-hotspots/?day=yesterday", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/daily-hotspots/?day=2000-01-01", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["items"])
}

func TestMaterialPacks(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, AdminUsername, "admin-pass")
	editor := login(t, srv, EditorUsername, "editor-pass")

	status, body, _ := doJSON(t, srv, http.MethodGet, "/api/materials/packs?keyword=export", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/materials/packs", editor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/materials/packs/1", editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Material pack not found", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/materials/packs/1", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 1)
}

func TestBatchCreateItems(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, AdminUsername, "admin-pass")

	status, _, raw := doJSON(t, srv, http.MethodPost, "/api/materials/packs/1/items:batchCreate", admin, map[string]any{
		"items": []map[string]any{
			{"item_type": " Quote ", "text": "  Shipping  in May "},
			{"item_type": "fact", "text": "   "},
		},
	})
	require.Equal(t, http.StatusOK, status)

	var created []map[string]any
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Len(t, created, 1)
	assert.Equal(t, "quote", created[0]["item_type"])
	assert.Equal(t, "Shipping in May", created[0]["text"])
	assert.NotEmpty(t, created[0]["text_hash"])

	status, body, _ := doJSON(t, srv, http.MethodPost, "/api/materials/packs/1/items:batchCreate", admin, map[string]any{
		"items": []map[string]any{{"item_type": "quote", "text": "x", "source_url": "not a url"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotNil(t, body["detail"])

	status, _, _ = doJSON(t, srv, http.MethodPost, "/api/materials/packs/1/items:unknown", admin, map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCrawlRecords(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, AdminUsername, "admin-pass")
	editor := login(t, srv, EditorUsername, "editor-pass")

	status, body, _ := doJSON(t, srv, http.MethodGet, "/api/crawl-records", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 20, body["limit"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records?datasource_id=1&limit=1", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "Export rules take effect", first["title"])
	assert.Equal(t, "Tech news", first["datasource_name"])
	assert.NotContains(t, first, "content")

	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	today := time.Now().Format(time.DateOnly)
	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records?start_date="+yesterday+"&end_date="+today, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records?start_date=last-week", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "start_date must be YYYY-MM-DD", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records", editor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records/1", editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Crawl record not found", body["detail"])

	status, body, _ = doJSON(t, srv, http.MethodGet, "/api/crawl-records/1", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["content"], "ninety days")
	assert.Equal(t, "https://news.example.com/tech/export-rules", body["url"])
}

func TestPublishAccounts(t *testing.T) {
	srv := newTestServer(t)

	var accounts []map[string]any
	status, _, raw := doJSON(t, srv, http.MethodGet, "/api/publish/accounts", login(t, srv, AdminUsername, "admin-pass"), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, "Markets desk", accounts[0]["name"])

	status, _, raw = doJSON(t, srv, http.MethodGet, "/api/publish/accounts", login(t, srv, EditorUsername, "editor-pass"), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "wechat_official", accounts[0]["provider"])
}
