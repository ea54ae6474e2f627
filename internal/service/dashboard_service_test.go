package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

type stubDashboardRepo struct {
	calls    int
	from, to time.Time
	err      error
}

func (s *stubDashboardRepo) Summary(ctx context.Context, from, to time.Time) (*models.DashboardSummary, error) {
	s.calls++
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	return &models.DashboardSummary{ActiveStudents: 420, ActiveTeachers: 31, MonthExpenses: 1500}, nil
}

type stubUnread struct{ count int }

func (s stubUnread) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.count, nil
}

func TestDashboardServiceCachesMonthlySummary(t *testing.T) {
	repo := &stubDashboardRepo{}
	cacheRepo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, "sms", 0, nil, true)
	svc := NewDashboardService(repo, stubUnread{count: 3}, cache, metrics, time.Minute, nil)
	svc.today = func() time.Time { return time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC) }

	first, err := svc.View(context.Background(), adminUser)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 420, first.Summary.ActiveStudents)
	assert.Equal(t, 3, first.UnreadMessages)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), repo.to)
	assert.Contains(t, cacheRepo.items, "sms:dashboard:summary:2025-03")
	assert.Equal(t, time.Minute, cacheRepo.ttls["sms:dashboard:summary:2025-03"])

	second, err := svc.View(context.Background(), cashierUser)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 420, second.Summary.ActiveStudents)
	assert.Equal(t, 1, repo.calls)

	ops := metrics.Snapshot().Operations
	require.Len(t, ops, 1)
	assert.Equal(t, "dashboard_summary", ops[0].Label)
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	repo := &stubDashboardRepo{}
	svc := NewDashboardService(repo, stubUnread{}, nil, nil, 0, nil)

	_, err := svc.View(context.Background(), adminUser)
	require.NoError(t, err)
	_, err = svc.View(context.Background(), adminUser)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardServiceRepositoryFailure(t *testing.T) {
	svc := NewDashboardService(&stubDashboardRepo{err: errors.New("timeout")}, stubUnread{}, nil, nil, 0, nil)

	_, err := svc.View(context.Background(), adminUser)
	assertAppError(t, err, appErrors.ErrInternal, "failed to load dashboard")
}
