package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/rulehound/rulehound/internal/adapter/driving/http"
	"github.com/rulehound/rulehound/internal/application"
	"github.com/rulehound/rulehound/internal/domain/model"
)

// --- Mock implementations ---

type mockStore struct {
	entries []model.CatalogEntry
	listErr error
}

func (m *mockStore) Upsert(_ context.Context, _ model.CatalogEntry) error {
	return nil
}

func (m *mockStore) ListEntries(_ context.Context) ([]model.CatalogEntry, error) {
	return m.entries, m.listErr
}

func (m *mockStore) GetByRepo(_ context.Context, owner, repo string) (*model.CatalogEntry, error) {
	for _, entry := range m.entries {
		if entry.Owner == owner && entry.Repo == repo {
			return &entry, nil
		}
	}
	return nil, nil
}

type mockTrigger struct {
	calls int
	err   error
}

func (m *mockTrigger) TriggerCollect(_ context.Context) error {
	m.calls++
	return m.err
}

// --- Helpers ---

func newTestServer(t *testing.T, store *mockStore, trigger *mockTrigger) (*httptest.Server, *application.TokenService) {
	t.Helper()

	tokens := application.NewTokenService(
		[]byte("test-secret"),
		"rulehound-test",
		time.Minute,
		map[string]string{"key-1234": "ci-client"},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := httphandler.NewHandler(store, trigger, tokens, logger)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, handler)

	srv := httptest.NewServer(httphandler.ApplyMiddleware(mux, logger))
	t.Cleanup(srv.Close)
	return srv, tokens
}

func bearerToken(t *testing.T, tokens *application.TokenService) string {
	t.Helper()
	token, err := tokens.IssueToken("key-1234")
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func sampleEntries() []model.CatalogEntry {
	return []model.CatalogEntry{{
		Name:        "Acme Rules",
		URL:         "https://host.example/acme/rules.git",
		Branch:      "main",
		Author:      "Acme",
		Owner:       "acme",
		Repo:        "rules",
		License:     model.LicenseInfo{Text: "MIT", URL: "https://host.example/acme/rules.git/blob/deadbeef/LICENSE"},
		RuleSets:    []model.RuleFile{{RelativePath: "mal.yar", Rules: []model.Rule{{Identifier: "Mal"}}}},
		CommitHash:  "deadbeef",
		RetrievedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		RepoPath:    "/staging/acme/rules",
	}}
}

// --- Tests ---

func TestIssueToken(t *testing.T) {
	srv, _ := newTestServer(t, &mockStore{}, &mockTrigger{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/core/issueToken", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "key-1234")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string `json:"status"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "success", body.Status)
	assert.NotEmpty(t, body.Token)
}

func TestIssueToken_UnknownKey(t *testing.T) {
	srv, _ := newTestServer(t, &mockStore{}, &mockTrigger{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/core/issueToken", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIssueToken_MissingHeader(t *testing.T) {
	srv, _ := newTestServer(t, &mockStore{}, &mockTrigger{})

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/core/issueToken", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogEndpointsRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, &mockStore{entries: sampleEntries()}, &mockTrigger{})

	for _, target := range []string{"/api/catalog", "/api/catalog/acme/rules"} {
		resp := doRequest(t, http.MethodGet, srv.URL+target, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/collect", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/catalog", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListCatalog(t *testing.T) {
	srv, tokens := newTestServer(t, &mockStore{entries: sampleEntries()}, &mockTrigger{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/catalog", bearerToken(t, tokens))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "acme", body[0]["owner"])
	assert.Equal(t, "deadbeef", body[0]["commit_hash"])
	assert.NotContains(t, body[0], "rule_sets", "summaries omit rule sets")
}

func TestGetCatalogEntry(t *testing.T) {
	srv, tokens := newTestServer(t, &mockStore{entries: sampleEntries()}, &mockTrigger{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/catalog/acme/rules", bearerToken(t, tokens))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Acme Rules", body["name"])
	assert.Contains(t, body, "rule_sets")
	assert.Equal(t, "2026-08-29T12:00:00Z", body["retrieved_at"])
}

func TestGetCatalogEntry_NotFound(t *testing.T) {
	srv, tokens := newTestServer(t, &mockStore{entries: sampleEntries()}, &mockTrigger{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/catalog/ghost/vanished", bearerToken(t, tokens))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTriggerCollect(t *testing.T) {
	trigger := &mockTrigger{}
	srv, tokens := newTestServer(t, &mockStore{}, trigger)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/collect", bearerToken(t, tokens))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, trigger.calls)
}

func TestTriggerCollect_Failure(t *testing.T) {
	trigger := &mockTrigger{err: errors.New("staging directory contents busy")}
	srv, tokens := newTestServer(t, &mockStore{}, trigger)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/collect", bearerToken(t, tokens))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &mockStore{}, &mockTrigger{})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
