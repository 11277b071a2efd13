package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

var outboxColumns = []string{
	"id", "task_request_id", "type", "payload", "attempts", "last_error", "processed_at", "created_at",
}

// OutboxRepository stores task request events until the dispatcher handles them.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Create appends an event within the transaction that produced it.
func (r *OutboxRepository) Create(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	query, args, err := psql.
		Insert("task_request_events").
		Columns("task_request_id", "type", "payload").
		Values(event.TaskRequestID, event.Type, payload).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}
	return nil
}

func scanOutboxEvents(rows pgx.Rows) ([]*domain.OutboxEvent, error) {
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		err := rows.Scan(&e.ID, &e.TaskRequestID, &e.Type, &payload, &e.Attempts, &e.LastError, &e.ProcessedAt, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("parse payload of event %d: %w", e.ID, err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// ClaimPending locks up to limit unprocessed events that have not exhausted
// their attempts. Rows locked by another dispatcher are skipped.
func (r *OutboxRepository) ClaimPending(ctx context.Context, tx pgx.Tx, limit int, maxAttempts int) ([]*domain.OutboxEvent, error) {
	query, args, err := psql.
		Select(outboxColumns...).
		From("task_request_events").
		Where(sq.Eq{"processed_at": nil}).
		Where(sq.Lt{"attempts": maxAttempts}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ClaimPending query: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}

	return scanOutboxEvents(rows)
}

// MarkProcessed records a successful dispatch.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	query, args, err := psql.
		Update("task_request_events").
		Set("processed_at", sq.Expr("NOW()")).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark event %d processed: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed dispatch attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, cause error) error {
	query, args, err := psql.
		Update("task_request_events").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", cause.Error()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark event %d failed: %w", id, err)
	}
	return nil
}

// ListByTaskRequestID retrieves every event of a task request, oldest first.
func (r *OutboxRepository) ListByTaskRequestID(ctx context.Context, taskRequestID string) ([]*domain.OutboxEvent, error) {
	query, args, err := psql.
		Select(outboxColumns...).
		From("task_request_events").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return scanOutboxEvents(rows)
}
