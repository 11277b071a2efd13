package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

// taskRequestColumns is the shared list of columns for task request queries.
var taskRequestColumns = []string{
	"id", "title", "description", "category_id", "priority", "status",
	"requester_id", "assigner_id", "executor_id", "request_date", "assignment_date",
	"due_date", "completed_date", "notes", "created_at", "updated_at",
}

// TaskRequestRepository handles database operations for task requests.
type TaskRequestRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRequestRepository creates a new TaskRequestRepository.
func NewTaskRequestRepository(pool *pgxpool.Pool) *TaskRequestRepository {
	return &TaskRequestRepository{pool: pool}
}

// scanTaskRequest scans a single row into a TaskRequest struct.
func scanTaskRequest(row pgx.Row) (*domain.TaskRequest, error) {
	var t domain.TaskRequest
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.CategoryID,
		&t.Priority,
		&t.Status,
		&t.RequesterID,
		&t.AssignerID,
		&t.ExecutorID,
		&t.RequestDate,
		&t.AssignmentDate,
		&t.DueDate,
		&t.CompletedDate,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskRequestNotFound
		}
		return nil, fmt.Errorf("scan task request: %w", err)
	}
	return &t, nil
}

// scanTaskRequests scans multiple rows into a slice of TaskRequest structs.
func scanTaskRequests(rows pgx.Rows) ([]*domain.TaskRequest, error) {
	defer rows.Close()

	var requests []*domain.TaskRequest
	for rows.Next() {
		t, err := scanTaskRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return requests, nil
}

// GetByID retrieves a task request by ID.
func (r *TaskRequestRepository) GetByID(ctx context.Context, id string) (*domain.TaskRequest, error) {
	query, args, err := psql.
		Select(taskRequestColumns...).
		From("task_requests").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task request: %w", err)
	}

	return scanTaskRequest(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task request by ID with FOR UPDATE lock (within transaction).
func (r *TaskRequestRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.TaskRequest, error) {
	query, args, err := psql.
		Select(taskRequestColumns...).
		From("task_requests").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task request %s: %w", id, err)
	}

	return scanTaskRequest(tx.QueryRow(ctx, query, args...))
}

// Create inserts a new task request within a transaction.
// ID, CreatedAt and UpdatedAt are populated from the database.
func (r *TaskRequestRepository) Create(ctx context.Context, tx pgx.Tx, t *domain.TaskRequest) (*domain.TaskRequest, error) {
	query, args, err := psql.
		Insert("task_requests").
		Columns(
			"title", "description", "category_id", "priority", "status",
			"requester_id", "request_date", "due_date", "notes",
		).
		Values(
			t.Title,
			t.Description,
			t.CategoryID,
			t.Priority,
			t.Status,
			t.RequesterID,
			t.RequestDate,
			t.DueDate,
			t.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task request: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create task request: %w", err)
	}

	return t, nil
}

// Save writes every mutable field of t, provided the stored status still equals
// previousStatus. Returns ErrConcurrentModification otherwise.
func (r *TaskRequestRepository) Save(
	ctx context.Context,
	tx pgx.Tx,
	previousStatus domain.Status,
	t *domain.TaskRequest,
) error {
	query, args, err := psql.
		Update("task_requests").
		Set("title", t.Title).
		Set("description", t.Description).
		Set("category_id", t.CategoryID).
		Set("priority", t.Priority).
		Set("status", t.Status).
		Set("assigner_id", t.AssignerID).
		Set("executor_id", t.ExecutorID).
		Set("request_date", t.RequestDate).
		Set("assignment_date", t.AssignmentDate).
		Set("due_date", t.DueDate).
		Set("completed_date", t.CompletedDate).
		Set("notes", t.Notes).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":     t.ID,
			"status": previousStatus,
		}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Save query for task request %s: %w", t.ID, err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: task request %s is no longer %s", domain.ErrConcurrentModification, t.ID, previousStatus)
		}
		return fmt.Errorf("save task request: %w", err)
	}

	return nil
}

// Delete removes a task request. Child rows are removed by cascade.
func (r *TaskRequestRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.
		Delete("task_requests").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task request %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskRequestNotFound
	}

	return nil
}
