package models

import "time"

// CacheStats reports the cache facade counters.
type CacheStats struct {
	Enabled  bool    `json:"enabled"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
	Keys     int64   `json:"keys"`
}

// SystemMetrics is a point-in-time view of request and database timing.
type SystemMetrics struct {
	CacheHitRatio            float64    `json:"cache_hit_ratio"`
	CacheHits                uint64     `json:"cache_hits"`
	CacheMisses              uint64     `json:"cache_misses"`
	RequestsTotal            uint64     `json:"requests_total"`
	AverageRequestDurationMs float64    `json:"avg_request_duration_ms"`
	DBQueryCount             uint64     `json:"db_query_count"`
	AverageDBQueryDurationMs float64    `json:"avg_db_query_duration_ms"`
	Operations               []OpTiming `json:"operations"`
	Goroutines               int        `json:"goroutines"`
	GeneratedAt              time.Time  `json:"generated_at"`
}

// OpTiming summarises the timed runs of a named operation.
type OpTiming struct {
	Label     string  `json:"label"`
	Count     uint64  `json:"count"`
	AverageMs float64 `json:"avg_ms"`
	MaxMs     float64 `json:"max_ms"`
}

// DBPoolStats mirrors the interesting parts of sql.DBStats.
type DBPoolStats struct {
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	WaitDuration    time.Duration `json:"wait_duration"`
	MaxOpen         int           `json:"max_open"`
}

// RuntimeStats captures process memory figures.
type RuntimeStats struct {
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

// Diagnostics is everything rendered on the admin diagnostics page.
type Diagnostics struct {
	Cache    CacheStats    `json:"cache"`
	Metrics  SystemMetrics `json:"metrics"`
	DB       DBPoolStats   `json:"db"`
	Runtime  RuntimeStats  `json:"runtime"`
	DBOnline bool          `json:"db_online"`
}
