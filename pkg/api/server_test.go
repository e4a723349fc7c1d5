package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes_RequireAPIKey(t *testing.T) {
	_, _, h := setupTestServer(t, store.Config{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest("GET", ts.URL+"/api/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_MetricsUnprotected(t *testing.T) {
	server, s, h := setupTestServer(t, store.Config{})
	_, err := s.Put(instrument.Snapshot{ID: 1, Cusip: "A", Enabled: true})
	require.NoError(t, err)
	server.metrics.UpdateStoreStats(s.Stats())

	_, _ = do(t, h, "GET", "/api/v1/instruments/1", "")

	ts := httptest.NewServer(h)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "fixedrec_store_records 1")
	assert.Contains(t, text, `fixedrec_store_operations_total{operation="get",status="success"} 1`)
	assert.Contains(t, text, `fixedrec_http_requests_total{endpoint="/api/v1/instruments/{id}",method="GET",status_code="200"} 1`)
}

func TestRoutes_CORSPreflight(t *testing.T) {
	_, _, h := setupTestServer(t, store.Config{})

	req := httptest.NewRequest("OPTIONS", "/api/v1/instruments/1", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PUT"))
}

func TestStartServer_RequiresAPIKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	err := StartServer(context.Background(), nil, ServerConfig{Port: 0}, nil, reg, reg)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestStartServer_StopsOnCancel(t *testing.T) {
	s, err := store.NewStore(store.Config{Capacity: 2})
	require.NoError(t, err)
	_, err = s.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	reg := prometheus.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, s, ServerConfig{Bind: "127.0.0.1", Port: 0, APIKey: testAPIKey}, nil, reg, reg)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
