package service

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

type dbStatsSource interface {
	Stats() sql.DBStats
	PingContext(ctx context.Context) error
}

// DiagnosticsService gathers the admin diagnostics page.
type DiagnosticsService struct {
	cache   *CacheService
	metrics *MetricsService
	db      dbStatsSource
	logger  *zap.Logger
}

// NewDiagnosticsService constructs a DiagnosticsService.
func NewDiagnosticsService(cache *CacheService, metrics *MetricsService, db dbStatsSource, logger *zap.Logger) *DiagnosticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticsService{cache: cache, metrics: metrics, db: db, logger: logger}
}

// Collect returns a point-in-time snapshot. It never fails; an unreachable database is reported offline.
func (s *DiagnosticsService) Collect(ctx context.Context) models.Diagnostics {
	diag := models.Diagnostics{
		Cache:   s.cache.Stats(ctx),
		Runtime: runtimeStats(),
	}
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		start := time.Now()
		err := s.db.PingContext(pingCtx)
		s.metrics.ObserveDBQuery("ping", time.Since(start))
		if err != nil {
			s.logger.Warn("diagnostics database ping failed", zap.Error(err))
		}
		diag.DBOnline = err == nil
		st := s.db.Stats()
		diag.DB = models.DBPoolStats{
			OpenConnections: st.OpenConnections,
			InUse:           st.InUse,
			Idle:            st.Idle,
			WaitCount:       st.WaitCount,
			WaitDuration:    st.WaitDuration,
			MaxOpen:         st.MaxOpenConnections,
		}
	}
	// Taken last so the ping above is counted.
	diag.Metrics = s.metrics.Snapshot()
	return diag
}

// FlushCache empties the application cache.
func (s *DiagnosticsService) FlushCache(ctx context.Context) (int64, error) {
	return s.cache.Flush(ctx)
}

func runtimeStats() models.RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	const mb = 1024 * 1024
	return models.RuntimeStats{
		HeapAllocMB: float64(mem.HeapAlloc) / mb,
		SysMB:       float64(mem.Sys) / mb,
		NumGC:       mem.NumGC,
		GoVersion:   runtime.Version(),
	}
}
