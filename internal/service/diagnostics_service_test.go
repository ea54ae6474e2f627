package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDBStats struct {
	pingErr error
	stats   sql.DBStats
}

func (s stubDBStats) Stats() sql.DBStats { return s.stats }

func (s stubDBStats) PingContext(ctx context.Context) error { return s.pingErr }

func TestDiagnosticsServiceCollect(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, "sms", 0, nil, true)
	db := stubDBStats{stats: sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, MaxOpenConnections: 25}}
	svc := NewDiagnosticsService(cache, metrics, db, nil)

	diag := svc.Collect(context.Background())
	assert.True(t, diag.DBOnline)
	assert.True(t, diag.Cache.Enabled)
	assert.Equal(t, 4, diag.DB.OpenConnections)
	assert.Equal(t, 25, diag.DB.MaxOpen)
	assert.Equal(t, uint64(1), diag.Metrics.DBQueryCount)
	assert.NotEmpty(t, diag.Runtime.GoVersion)
}

func TestDiagnosticsServiceDatabaseOffline(t *testing.T) {
	svc := NewDiagnosticsService(nil, nil, stubDBStats{pingErr: errors.New("connection refused")}, nil)

	diag := svc.Collect(context.Background())
	assert.False(t, diag.DBOnline)
	assert.False(t, diag.Cache.Enabled)
}

func TestDiagnosticsServiceFlushCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, "sms", 0, nil, true)
	require.NoError(t, cache.Set(context.Background(), "dashboard:summary:2025-03", 1, 0))
	svc := NewDiagnosticsService(cache, nil, nil, nil)

	deleted, err := svc.FlushCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, repo.items)
}
