package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

type fakeDiagnosticsSrv struct {
	diag     models.Diagnostics
	removed  int64
	flushErr error
	flushed  bool
}

func (f *fakeDiagnosticsSrv) Collect(context.Context) models.Diagnostics {
	return f.diag
}

func (f *fakeDiagnosticsSrv) FlushCache(context.Context) (int64, error) {
	f.flushed = true
	return f.removed, f.flushErr
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func diagnosticsEngine(t *testing.T, srv *fakeDiagnosticsSrv, db pinger) *gin.Engine {
	h := NewDiagnosticsHandler(srv)
	health := NewHealthHandler(db)
	return newTestEngine(t, adminUser, func(r *gin.Engine) {
		r.GET("/admin/diagnostics", h.Page)
		r.POST("/admin/diagnostics/cache/flush", h.FlushCache)
		r.GET("/api/admin/diagnostics", h.JSON)
		r.GET("/health", health.Health)
		r.GET("/ready", health.Ready)
	})
}

func sampleDiagnostics() models.Diagnostics {
	return models.Diagnostics{
		Cache:    models.CacheStats{Enabled: true, Hits: 3, Misses: 1, HitRatio: 0.75, Keys: 12},
		Metrics:  models.SystemMetrics{RequestsTotal: 40, Operations: []models.OpTiming{{Label: "dashboard.summary", Count: 2, AverageMs: 1.5, MaxMs: 2}}},
		DB:       models.DBPoolStats{OpenConnections: 2, MaxOpen: 10},
		Runtime:  models.RuntimeStats{GoVersion: "go1.24.0"},
		DBOnline: true,
	}
}

func TestDiagnosticsPage(t *testing.T) {
	r := diagnosticsEngine(t, &fakeDiagnosticsSrv{diag: sampleDiagnostics()}, fakePinger{})

	rec := doGet(r, "/admin/diagnostics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "75.0%")
	assert.Contains(t, body, "dashboard.summary")
	assert.Contains(t, body, "Online")
}

func TestDiagnosticsJSON(t *testing.T) {
	r := diagnosticsEngine(t, &fakeDiagnosticsSrv{diag: sampleDiagnostics()}, fakePinger{})

	rec := doGet(r, "/api/admin/diagnostics")

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Diagnostics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(12), got.Cache.Keys)
	assert.True(t, got.DBOnline)
}

func TestDiagnosticsFlushCache(t *testing.T) {
	srv := &fakeDiagnosticsSrv{removed: 12}
	r := diagnosticsEngine(t, srv, fakePinger{})

	rec := doPostForm(r, "/admin/diagnostics/cache/flush", url.Values{})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/diagnostics", rec.Header().Get("Location"))
	assert.True(t, srv.flushed)
}

func TestDiagnosticsFlushCacheFailure(t *testing.T) {
	srv := &fakeDiagnosticsSrv{flushErr: errors.New("redis: connection pool timeout")}
	r := diagnosticsEngine(t, srv, fakePinger{})

	rec := doPostForm(r, "/admin/diagnostics/cache/flush", url.Values{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pool timeout")
}

func TestHealthAndReady(t *testing.T) {
	r := diagnosticsEngine(t, &fakeDiagnosticsSrv{}, fakePinger{})

	rec := doGet(r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doGet(r, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	r := diagnosticsEngine(t, &fakeDiagnosticsSrv{}, fakePinger{err: errors.New("connection refused")})

	rec := doGet(r, "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}
