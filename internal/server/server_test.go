package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcs-education/starcat"
	"github.com/mcs-education/starcat/internal/config"
)

const demo = `{"name":"Demo System","stars":[{"name":"Demo Star","lum":1.0}],"planets":[{"name":"Demo b","aAU":1.0,"periodDays":365.25,"radiusEarth":1.0}]}`

func newTestServer(t *testing.T, tweak func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	if tweak != nil {
		tweak(cfg)
	}
	cat := starcat.NewCatalog(starcat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(cat, cfg).Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "192.0.2.10:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, gojson.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "empty", decodeBody(t, rec)["status"])

	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", demo).Code)

	rec = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["generation"])
}

func TestReadsBeforeLoad(t *testing.T) {
	h := newTestServer(t, nil)
	for _, path := range []string{"/v1/dataset", "/v1/systems", "/v1/systems/Demo", "/v1/warnings"} {
		rec := do(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "no dataset loaded", path)
	}
}

func TestPostDataset(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/v1/dataset", demo)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	summary := decodeBody(t, rec)
	assert.EqualValues(t, 1, summary["generation"])
	assert.EqualValues(t, 1, summary["systems"])
	assert.EqualValues(t, 1, summary["bodies"])
	assert.EqualValues(t, 0, summary["warnings"])
	assert.Equal(t, "bytes", summary["source"])
	assert.Len(t, summary["fingerprint"], 64)

	rec = do(h, http.MethodGet, "/v1/dataset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, summary["id"], decodeBody(t, rec)["id"])
}

func TestPostDataset_Fatal(t *testing.T) {
	h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", demo).Code)

	rec := do(h, http.MethodPost, "/v1/dataset", `"just a string"`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	issue, ok := decodeBody(t, rec)["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, starcat.CodeMalformedInput, issue["code"])

	rec = do(h, http.MethodGet, "/healthz", "")
	assert.EqualValues(t, 1, decodeBody(t, rec)["generation"], "rejected upload keeps the snapshot")
}

func TestPostDataset_OverflowingDerivation(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(h, http.MethodPost, "/v1/dataset", `{"name":"S","stars":[{"name":"A","mass":1e100}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decodeBody(t, rec)["warnings"])
}

func TestPostDataset_TooLarge(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) { cfg.Server.MaxBodyBytes = 16 })
	rec := do(h, http.MethodPost, "/v1/dataset", demo)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
}

func TestSystems(t *testing.T) {
	h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", demo).Code)

	rec := do(h, http.MethodGet, "/v1/systems", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, gojson.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Demo System", list[0]["name"])
	assert.EqualValues(t, 1, list[0]["stars"])
	assert.EqualValues(t, 1, list[0]["planets"])
	zone, ok := list[0]["habitableZone"].(map[string]any)
	require.True(t, ok)
	assert.Less(t, zone["innerAU"].(float64), zone["outerAU"].(float64))

	rec = do(h, http.MethodGet, "/v1/systems/Demo%20System", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Demo b")

	rec = do(h, http.MethodGet, "/v1/systems/Nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "system not found")
}

func TestWarnings(t *testing.T) {
	h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", demo).Code)
	rec := do(h, http.MethodGet, "/v1/warnings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	bad := `{"name":"S","planets":[{"name":"b","aAU":1}]}`
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", bad).Code)
	rec = do(h, http.MethodGet, "/v1/warnings", "")
	var warnings []map[string]any
	require.NoError(t, gojson.Unmarshal(rec.Body.Bytes(), &warnings))
	require.Len(t, warnings, 2)
	assert.Equal(t, starcat.CodeMissingRequired, warnings[0]["code"])
	assert.Equal(t, "/planets/0/periodDays", warnings[0]["path"])
}

func TestPostDataset_RateLimited(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.BurstSize = 1
	})

	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/dataset", demo).Code)
	rec := do(h, http.MethodPost, "/v1/dataset", demo)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// reads are never limited
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/dataset", "").Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", nil, false, "192.0.2.10"},
		{"forwarded ignored", map[string]string{"X-Forwarded-For": "203.0.113.5"}, false, "192.0.2.10"},
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, true, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, true, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.10:40000"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req, tt.trustProxy))
		})
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, BurstSize: 2})
	now := time.Now()
	require.True(t, rl.getLimiter("192.0.2.1").AllowN(now, 1))
	rl.getLimiter("192.0.2.2")

	rl.sweep(now)
	assert.Len(t, rl.clients, 1, "an untouched bucket is idle")

	rl.sweep(now.Add(10 * time.Second))
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_CleanupStops(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Cleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) { cfg.Server.AllowedOrigins = []string{"https://viewer.example"} })
	req := httptest.NewRequest(http.MethodOptions, "/v1/systems", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://viewer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://viewer.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
