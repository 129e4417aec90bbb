package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bnsearch/pkg/observability"
	"github.com/matzehuels/bnsearch/pkg/store"
)

func newServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	prom := observability.NewPrometheus(prometheus.NewRegistry())
	srv := New(fs, WithMetrics(prom.Handler()), WithLogger(log.New(io.Discard)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, fs
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newServer(t)

	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = get(t, ts.URL+"/version")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"version"`)
}

func TestResults(t *testing.T) {
	ts, fs := newServer(t)
	key := strings.Repeat("a", 64)

	status, body := get(t, ts.URL+"/results")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = get(t, ts.URL+"/results/"+key)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), `"NOT_FOUND"`)

	_, err := fs.Put(context.Background(), store.Record{
		Instance:  "asia",
		Key:       key,
		Score:     42,
		Ordering:  []int{1, 0},
		Method:    "climb",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	status, body = get(t, ts.URL+"/results/"+key)
	require.Equal(t, http.StatusOK, status)
	var rec store.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "asia", rec.Instance)
	assert.EqualValues(t, 42, rec.Score)

	status, body = get(t, ts.URL+"/results")
	assert.Equal(t, http.StatusOK, status)
	var recs []store.Record
	require.NoError(t, json.Unmarshal(body, &recs))
	assert.Len(t, recs, 1)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/results/"+key, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, _ = get(t, ts.URL+"/results/"+key)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInvalidKey(t *testing.T) {
	ts, _ := newServer(t)
	status, body := get(t, ts.URL+"/results/NOT-A-KEY")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), `"INVALID_KEY"`)
}

func TestMetrics(t *testing.T) {
	ts, _ := newServer(t)
	status, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)

	plain := httptest.NewServer(New(store.NewNullStore()).Handler())
	defer plain.Close()
	status, _ = get(t, plain.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}
