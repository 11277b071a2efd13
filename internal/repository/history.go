package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

// HistoryRepository handles database operations for task request history.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create appends a history entry within the transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx pgx.Tx, h *domain.History) error {
	query, args, err := psql.
		Insert("task_request_history").
		Columns("task_request_id", "user_id", "previous_status", "new_status", "notes").
		Values(h.TaskRequestID, h.UserID, h.PreviousStatus, h.NewStatus, h.Notes).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&h.ID, &h.CreatedAt); err != nil {
		return fmt.Errorf("create history entry: %w", err)
	}

	return nil
}

// ListByTaskRequestID retrieves the history of a task request, oldest first.
func (r *HistoryRepository) ListByTaskRequestID(ctx context.Context, taskRequestID string) ([]*domain.History, error) {
	query, args, err := psql.
		Select("id", "task_request_id", "user_id", "previous_status", "new_status", "notes", "created_at").
		From("task_request_history").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.History
	for rows.Next() {
		var h domain.History
		err := rows.Scan(
			&h.ID,
			&h.TaskRequestID,
			&h.UserID,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Notes,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
