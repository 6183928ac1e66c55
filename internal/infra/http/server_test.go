//go:build !integration

package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tweet-telegram-relay/internal/domain/model"
	adminhttp "tweet-telegram-relay/internal/infra/http"
	"tweet-telegram-relay/internal/infra/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	accounts []model.TrackedAccount
	start    time.Time
}

func (f fakeLister) Accounts() []model.TrackedAccount { return f.accounts }
func (f fakeLister) WindowStart() time.Time           { return f.start }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lister := fakeLister{
		start: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		accounts: []model.TrackedAccount{
			{Account: model.MonitoredAccount{Username: "alice", AccountID: "1"}, Cursor: model.NewCursor("103")},
			{Account: model.MonitoredAccount{Username: "ghost"}},
		},
	}
	srv := adminhttp.NewServer(0, lister, logging.Nop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccounts(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		WindowStart time.Time `json:"window_start"`
		Accounts    []struct {
			Username   string `json:"username"`
			Resolved   bool   `json:"resolved"`
			LastSeenID string `json:"last_seen_post_id"`
		} `json:"accounts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Accounts, 2)
	assert.Equal(t, "alice", body.Accounts[0].Username)
	assert.True(t, body.Accounts[0].Resolved)
	assert.Equal(t, "103", body.Accounts[0].LastSeenID)
	assert.False(t, body.Accounts[1].Resolved)
	assert.True(t, body.WindowStart.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
