package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type dashboardRepository interface {
	Summary(ctx context.Context, from, to time.Time) (*models.DashboardSummary, error)
}

type unreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// DashboardView is what the home page renders.
type DashboardView struct {
	Summary        models.DashboardSummary
	UnreadMessages int
	Cached         bool
}

// DashboardService composes the home page counters.
type DashboardService struct {
	repo     dashboardRepository
	messages unreadCounter
	cache    *CacheService
	metrics  *MetricsService
	ttl      time.Duration
	logger   *zap.Logger
	today    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, messages unreadCounter, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, messages: messages, cache: cache, metrics: metrics, ttl: ttl, logger: logger, today: validation.Today}
}

// View returns the school-wide aggregates (cached per month) and the user's unread count.
func (s *DashboardService) View(ctx context.Context, user *models.SessionUser) (*DashboardView, error) {
	today := s.today()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	to := from.AddDate(0, 1, 0)
	key := "dashboard:summary:" + from.Format("2006-01")

	view := &DashboardView{}
	if s.cache.Get(ctx, key, &view.Summary) {
		view.Cached = true
	} else {
		var summary *models.DashboardSummary
		err := s.metrics.Time("dashboard_summary", func() error {
			var err error
			summary, err = s.repo.Summary(ctx, from, to)
			return err
		})
		if err != nil {
			return nil, internalErr(err, "failed to load dashboard")
		}
		summary.GeneratedAt = time.Now().UTC()
		view.Summary = *summary
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	unread, err := s.messages.UnreadCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	view.UnreadMessages = unread
	return view, nil
}
