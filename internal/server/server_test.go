package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"shuttle-router/internal/config"
	"shuttle-router/internal/handlers"
	"shuttle-router/internal/metrics"
	"shuttle-router/internal/testutil"
)

func TestServer_StartAndShutdown(t *testing.T) {
	store := testutil.NewMockRunStore()
	srv, err := New(Config{
		Env: config.Env{Addr: "127.0.0.1:0", TimeLimit: 5 * time.Second, SolveRPS: 10, SolveBurst: 10},
		DB:  store,
	})
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	solveBody := `{"depot":{"x":0,"y":0},"staff":[{"x":1,"y":0}],"vehicles":[{"capacity":1}],"save":true}`
	solve, err := http.Post("http://"+addr+"/api/v1/solve", "application/json", strings.NewReader(solveBody))
	require.NoError(t, err)
	solve.Body.Close()
	assert.Equal(t, http.StatusOK, solve.StatusCode)
	assert.Equal(t, 1, store.Count())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, store.Closed())
}

func TestServer_ShutdownClosesStoreOnTimeout(t *testing.T) {
	store := testutil.NewMockRunStore()
	srv, err := New(Config{
		Env: config.Env{Addr: "127.0.0.1:0", TimeLimit: 5 * time.Second},
		DB:  store,
	})
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)

	// a half-sent request keeps the connection open past the shutdown deadline
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("GET /api/v1/health HTTP/1.1\r\n"))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, srv.Shutdown(ctx), context.Canceled)
	assert.True(t, store.Closed())
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{Env: config.Env{Addr: "127.0.0.1:0"}})
	require.Error(t, err)
}

func TestRoutes(t *testing.T) {
	metrics.RegisterDefault()
	h := &handlers.Handler{DB: testutil.NewMockRunStore(), Env: config.Env{TimeLimit: time.Second}}
	ts := httptest.NewServer(loggingMiddleware(corsMiddleware(setupRoutes(h, nil))))
	defer ts.Close()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/solve", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/runs", http.StatusOK},
		{http.MethodPost, "/api/v1/runs", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/runs/", http.StatusNotFound},
		{http.MethodGet, "/api/v1/runs/unknown", http.StatusNotFound},
		{http.MethodPut, "/api/v1/runs/unknown", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/runs/unknown", http.StatusNotFound},
		{http.MethodOptions, "/api/v1/solve", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http_requests_total")
}

func TestRateLimit(t *testing.T) {
	h := &handlers.Handler{DB: testutil.NewMockRunStore()}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	mux := setupRoutes(h, limiter)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	first := post()
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := post()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestNewSolveLimiter(t *testing.T) {
	assert.Nil(t, newSolveLimiter(0, 4))
	l := newSolveLimiter(2, 0)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

func TestMetricsPath(t *testing.T) {
	assert.Equal(t, "/api/v1/runs/{id}", metricsPath("/api/v1/runs/abc"))
	assert.Equal(t, "/api/v1/solve", metricsPath("/api/v1/solve"))
	assert.Equal(t, "other", metricsPath("/favicon.ico"))
}
