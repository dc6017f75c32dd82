package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *auth.MemoryStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := auth.NewMemoryStore()
	return New(srv.URL+"/api", tokens, opts...), tokens
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(ProfileResponse{User: User{ID: 1, Username: "alice"}})
	})
	require.NoError(t, tokens.Set("tok-123"))

	resp, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestClient_NoTokenSendsUnauthenticated(t *testing.T) {
	gotAuth := "unset"
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	_, err := c.ListDataSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedClearsTokenAndRedirects(t *testing.T) {
	var got []Invalidation
	c, tokens := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"token expired"}`))
		},
		WithLocation(func() string { return "/articles/42?tab=raw#top" }),
		WithInvalidationHandler(func(inv Invalidation) { got = append(got, inv) }),
	)
	require.NoError(t, tokens.Set("stale"))

	_, err := c.ListArticles(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "token expired", err.Error())

	token, _ := tokens.Get()
	assert.Empty(t, token, "401 must clear the token")

	require.Len(t, got, 1)
	assert.Equal(t, "/articles/42?tab=raw#top", got[0].Intended)

	redirect, err := url.Parse(got[0].Redirect)
	require.NoError(t, err)
	assert.Equal(t, "/login", redirect.Path)
	assert.Equal(t, "/articles/42?tab=raw#top", redirect.Query().Get("redirect"))
}

func TestClient_UnauthorizedOnLoginScreenDoesNotRedirect(t *testing.T) {
	published := false
	c, tokens := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		WithLocation(func() string { return "/login?redirect=%2Fdashboard" }),
		WithInvalidationHandler(func(Invalidation) { published = true }),
	)
	require.NoError(t, tokens.Set("stale"))

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.False(t, published)

	token, _ := tokens.Get()
	assert.Empty(t, token)
}

func TestClient_ErrorMessageNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "string detail",
			status:   http.StatusBadRequest,
			body:     `{"detail":"incorrect username or password"}`,
			expected: "incorrect username or password",
		},
		{
			name:     "structured detail",
			status:   http.StatusUnprocessableEntity,
			body:     `{"detail": [{"loc": ["body","name"], "msg": "field required"}]}`,
			expected: `[{"loc":["body","name"],"msg":"field required"}]`,
		},
		{
			name:     "no detail",
			status:   http.StatusInternalServerError,
			body:     `internal error`,
			expected: "request failed with status code 500",
		},
		{
			name:     "empty detail",
			status:   http.StatusNotFound,
			body:     `{"detail":""}`,
			expected: "request failed with status code 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetArticle(context.Background(), 7)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.expected, apiErr.Message)
		})
	}
}

func TestClient_TransportFailureIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := New(baseURL, auth.NewMemoryStore())
	_, err := c.ListArticles(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.Equal(t, "request timed out", err.Error())
}

func TestClient_TimeoutDoesNotTouchSharedHTTPClient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	defer close(release)

	shared := &http.Client{}
	orders := map[string][]Option{
		"timeout last":  {WithHTTPClient(shared), WithTimeout(50 * time.Millisecond)},
		"timeout first": {WithTimeout(50 * time.Millisecond), WithHTTPClient(shared)},
	}
	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			c := New(srv.URL+"/api", auth.NewMemoryStore(), opts...)

			_, err := c.Profile(context.Background())
			require.Error(t, err)
			assert.Equal(t, "request timed out", err.Error())
			assert.Zero(t, shared.Timeout)
		})
	}
}

func TestClient_RequestShape(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
			var req LoginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.NewEncoder(w).Encode(LoginResponse{AccessToken: "t-" + req.Username, User: User{Username: req.Username}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/datasources/3/trigger":
			assert.Equal(t, "true", r.URL.Query().Get("force"))
			w.Write([]byte(`{"id":3,"name":"rss","source_type":"rss","enable_schedule":false,"created_at":"2024-05-01 08:00:00"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/materials/packs/9/items:batchCreate":
			var body struct {
				Items []MaterialItemCreate `json:"items"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Items, 1)
			w.Write([]byte(`[{"id":1,"pack_id":9,"item_type":"quote","text":"hi","text_hash":"x","created_at":""}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/daily-hotspots/":
			assert.Equal(t, "2024-05-01", r.URL.Query().Get("day"))
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"day":"2024-05-01","items":[]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/crawl-records":
			assert.Equal(t, url.Values{"datasource_id": {"4"}, "start_date": {"2024-05-01"}, "limit": {"10"}}, r.URL.Query())
			w.Write([]byte(`{"total":11,"limit":10,"offset":0,"items":[{"id":2,"datasource_id":4,"source_type":"rss","fetched_at":"2024-05-01T08:00:00"}]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	login, err := c.Login(ctx, LoginRequest{Username: "alice", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "t-alice", login.AccessToken)

	source, err := c.TriggerDataSource(ctx, 3, true)
	require.NoError(t, err)
	assert.Equal(t, "rss", source.Name)

	items, err := c.BatchCreateMaterialItems(ctx, 9, []MaterialItemCreate{{ItemType: "quote", Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, int64(9), items[0].PackID)

	digest, err := c.ListDailyHotspots(ctx, "2024-05-01", 20)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", digest.Day)

	records, err := c.ListCrawlRecords(ctx, CrawlRecordFilter{DataSourceID: 4, StartDate: "2024-05-01", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, records.Total)
	assert.Equal(t, int64(4), records.Items[0].DataSourceID)
}
