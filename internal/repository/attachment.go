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

var attachmentColumns = []string{
	"id", "task_request_id", "user_id", "file_name", "content_type", "size_bytes", "storage_path", "created_at",
}

// AttachmentRepository handles database operations for attachment metadata.
type AttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository creates a new AttachmentRepository.
func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(&a.ID, &a.TaskRequestID, &a.UserID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.StoragePath, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	return &a, nil
}

// Create inserts attachment metadata.
func (r *AttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	query, args, err := psql.
		Insert("task_request_attachments").
		Columns("task_request_id", "user_id", "file_name", "content_type", "size_bytes", "storage_path").
		Values(a.TaskRequestID, a.UserID, a.FileName, a.ContentType, a.SizeBytes, a.StoragePath).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// GetByID retrieves an attachment of the given task request.
func (r *AttachmentRepository) GetByID(ctx context.Context, taskRequestID string, id int64) (*domain.Attachment, error) {
	query, args, err := psql.
		Select(attachmentColumns...).
		From("task_request_attachments").
		Where(sq.Eq{"id": id, "task_request_id": taskRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanAttachment(r.pool.QueryRow(ctx, query, args...))
}

// ListByTaskRequestID retrieves all attachments of a task request, oldest first.
func (r *AttachmentRepository) ListByTaskRequestID(ctx context.Context, taskRequestID string) ([]*domain.Attachment, error) {
	query, args, err := psql.
		Select(attachmentColumns...).
		From("task_request_attachments").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return attachments, nil
}

// Delete removes attachment metadata.
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.
		Delete("task_request_attachments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
