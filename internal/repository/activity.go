package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

var activityColumns = []string{"id", "task_request_id", "title", "executor_id", "status", "started_at", "created_at"}

// ActivityRepository handles database operations for activities.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.TaskRequestID, &a.Title, &a.ExecutorID, &a.Status, &a.StartedAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return &a, nil
}

// GetByTaskRequestID retrieves the activity linked to a task request.
func (r *ActivityRepository) GetByTaskRequestID(ctx context.Context, q Querier, taskRequestID string) (*domain.Activity, error) {
	query, args, err := psql.
		Select(activityColumns...).
		From("activities").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanActivity(q.QueryRow(ctx, query, args...))
}

// CreateIfMissing inserts a PENDING activity for the task request unless one
// already exists, then returns the stored row locked for update.
func (r *ActivityRepository) CreateIfMissing(ctx context.Context, tx pgx.Tx, a *domain.Activity) (*domain.Activity, error) {
	query, args, err := psql.
		Insert("activities").
		Columns("task_request_id", "title", "executor_id", "status").
		Values(a.TaskRequestID, a.Title, a.ExecutorID, domain.ActivityStatusPending).
		Suffix("ON CONFLICT (task_request_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	lockQuery, lockArgs, err := psql.
		Select(activityColumns...).
		From("activities").
		Where(sq.Eq{"task_request_id": a.TaskRequestID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanActivity(tx.QueryRow(ctx, lockQuery, lockArgs...))
}

// Start marks an activity IN_PROGRESS.
func (r *ActivityRepository) Start(ctx context.Context, tx pgx.Tx, id int64, executorID *int64, startedAt time.Time) error {
	query, args, err := psql.
		Update("activities").
		Set("status", domain.ActivityStatusInProgress).
		Set("executor_id", executorID).
		Set("started_at", startedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("start activity: %w", err)
	}
	return nil
}
