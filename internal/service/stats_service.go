package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

// Stats is the dashboard summary for a period.
type Stats struct {
	Period      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Dashboard   *repository.DashboardStatsResult
	Executors   []repository.ExecutorStatsResult
}

// StatsService computes dashboard statistics.
type StatsService struct {
	statsRepo *repository.StatsRepository
	now       func() time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, now: time.Now}
}

// PeriodStart returns the start of the named period ending at now.
// An empty period means week.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), nil
	case "", "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "all":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("%w: got %q", domain.ErrInvalidPeriod, period)
	}
}

// Get returns counts by status and priority, the overdue count, period
// activity and per-executor workload.
func (s *StatsService) Get(ctx context.Context, period string) (*Stats, error) {
	now := s.now()
	start, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "week"
	}

	filters := repository.StatsFilters{PeriodStart: start, PeriodEnd: now}

	dashboard, err := s.statsRepo.GetDashboardStats(ctx, filters)
	if err != nil {
		return nil, err
	}

	executors, err := s.statsRepo.GetExecutorStats(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   now,
		Dashboard:   dashboard,
		Executors:   executors,
	}, nil
}
