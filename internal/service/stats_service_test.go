package service_test

import (
	"context"
	"time"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/service"
)

// TestStats counts requests by status and executor.
func (s *ServiceTestSuite) TestStats() {
	ctx := context.Background()
	s.createDraft(ctx)
	s.createInStatus(ctx, domain.StatusInProgress)
	done := s.createInStatus(ctx, domain.StatusInProgress)
	_, err := s.workflow.Complete(ctx, done.ID, executorID, "")
	s.Require().NoError(err)

	stats, err := s.stats.Get(ctx, "")
	s.Require().NoError(err)
	s.Equal("week", stats.Period)
	s.Equal(3, stats.Dashboard.CreatedInPeriod)
	s.Equal(1, stats.Dashboard.CompletedInPeriod)
	s.Equal(1, stats.Dashboard.ByStatus[string(domain.StatusDraft)])
	s.Equal(1, stats.Dashboard.ByStatus[string(domain.StatusInProgress)])
	s.Equal(1, stats.Dashboard.ByStatus[string(domain.StatusCompleted)])
	s.Equal(3, stats.Dashboard.ByPriority[string(domain.PriorityMedium)])

	s.Require().Len(stats.Executors, 1)
	s.Equal(executorID, stats.Executors[0].ExecutorID)
	s.Equal(1, stats.Executors[0].TasksCompleted)
	s.Equal(1, stats.Executors[0].TasksInProgress)

	_, err = s.stats.Get(ctx, "decade")
	s.ErrorIs(err, domain.ErrInvalidPeriod)
}

// TestPeriodStart maps period names to boundaries.
func (s *ServiceTestSuite) TestPeriodStart() {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	start, err := service.PeriodStart("day", now)
	s.Require().NoError(err)
	s.Equal(now.Add(-24*time.Hour), start)

	start, err = service.PeriodStart("month", now)
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), start)

	start, err = service.PeriodStart("all", now)
	s.Require().NoError(err)
	s.True(start.IsZero())
}
