package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

// StatsFilters holds filters for statistics queries.
type StatsFilters struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ExecutorStatsResult holds statistics for a single executor.
type ExecutorStatsResult struct {
	ExecutorID      int64
	TasksCompleted  int
	TasksInProgress int
}

// DashboardStatsResult holds overall task request statistics.
type DashboardStatsResult struct {
	CreatedInPeriod   int
	CompletedInPeriod int
	ByStatus          map[string]int
	ByPriority        map[string]int
	OverdueCount      int
}

// StatsRepository runs the dashboard aggregate queries.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) countBy(ctx context.Context, column string) (map[string]int, error) {
	query, args, err := psql.
		Select(column, "COUNT(*)").
		From("task_requests").
		GroupBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by %s query: %w", column, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task requests by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", column, err)
	}
	return counts, nil
}

// GetDashboardStats retrieves overall task request statistics.
func (r *StatsRepository) GetDashboardStats(ctx context.Context, filters StatsFilters) (*DashboardStatsResult, error) {
	var result DashboardStatsResult

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(CASE WHEN created_at >= $1 AND created_at <= $2 THEN 1 END),
			COUNT(CASE WHEN status = $3 AND completed_date >= $1 AND completed_date <= $2 THEN 1 END),
			COUNT(CASE WHEN due_date < NOW() AND status NOT IN ($3, $4, $5) THEN 1 END)
		FROM task_requests
	`, filters.PeriodStart, filters.PeriodEnd,
		domain.StatusCompleted, domain.StatusCancelled, domain.StatusRejected,
	).Scan(&result.CreatedInPeriod, &result.CompletedInPeriod, &result.OverdueCount)
	if err != nil {
		return nil, fmt.Errorf("count task requests: %w", err)
	}

	if result.ByStatus, err = r.countBy(ctx, "status"); err != nil {
		return nil, err
	}
	if result.ByPriority, err = r.countBy(ctx, "priority"); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetExecutorStats retrieves per-executor workload.
func (r *StatsRepository) GetExecutorStats(ctx context.Context, filters StatsFilters) ([]ExecutorStatsResult, error) {
	query, args, err := psql.
		Select("executor_id").
		Column("COUNT(CASE WHEN status = ? AND completed_date >= ? AND completed_date <= ? THEN 1 END)",
			domain.StatusCompleted, filters.PeriodStart, filters.PeriodEnd).
		Column("COUNT(CASE WHEN status = ? THEN 1 END)", domain.StatusInProgress).
		From("task_requests").
		Where(sq.NotEq{"executor_id": nil}).
		GroupBy("executor_id").
		OrderBy("executor_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build executor stats query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executor stats: %w", err)
	}
	defer rows.Close()

	var results []ExecutorStatsResult
	for rows.Next() {
		var s ExecutorStatsResult
		if err := rows.Scan(&s.ExecutorID, &s.TasksCompleted, &s.TasksInProgress); err != nil {
			return nil, fmt.Errorf("scan executor stats: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executor stats rows: %w", err)
	}

	return results, nil
}
