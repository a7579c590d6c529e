package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type dashboardRepository interface {
	CountActiveSections(ctx context.Context) (int, error)
	CountActiveEnrollments(ctx context.Context) (int, error)
	CountUpcomingMeetings(ctx context.Context, since time.Time) (int, error)
	CountPendingGrading(ctx context.Context) (int, error)
}

type overviewCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const dashboardCacheKey = "dashboard:overview"

// DashboardService aggregates platform counters behind a short-lived cache.
type DashboardService struct {
	stats    dashboardRepository
	cache    overviewCache
	cacheTTL time.Duration
	logger   *zap.Logger
	clock    func() time.Time
}

// NewDashboardService constructs DashboardService. A nil cache disables
// caching entirely.
func NewDashboardService(stats dashboardRepository, cache overviewCache, cacheTTL time.Duration, logger *zap.Logger, clock func() time.Time) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &DashboardService{stats: stats, cache: cache, cacheTTL: cacheTTL, logger: logger, clock: clock}
}

// Overview returns the platform counters, served from cache when fresh.
// Cache failures degrade to a direct read, never to an error.
func (s *DashboardService) Overview(ctx context.Context) (*models.DashboardOverview, error) {
	if s.cache != nil {
		var cached models.DashboardOverview
		hit, err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Sugar().Warnw("dashboard cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	now := s.clock()
	overview := &models.DashboardOverview{GeneratedAt: now}

	var err error
	if overview.ActiveSections, err = s.stats.CountActiveSections(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sections")
	}
	if overview.ActiveEnrollments, err = s.stats.CountActiveEnrollments(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if overview.UpcomingMeetings, err = s.stats.CountUpcomingMeetings(ctx, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count meetings")
	}
	if overview.PendingGrading, err = s.stats.CountPendingGrading(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending grading")
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Sugar().Warnw("dashboard cache write failed", "error", err)
		}
	}
	return overview, nil
}
