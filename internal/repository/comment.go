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

var commentColumns = []string{"id", "task_request_id", "user_id", "content", "read_by", "created_at", "updated_at"}

// CommentRepository handles database operations for task request comments.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.TaskRequestID, &c.UserID, &c.Content, &c.ReadBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewCommentError(domain.CommentNotFound, "comment not found")
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &c, nil
}

// Create inserts a comment. The author is marked as having read it.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	c.ReadBy = []int64{c.UserID}

	query, args, err := psql.
		Insert("task_request_comments").
		Columns("task_request_id", "user_id", "content", "read_by").
		Values(c.TaskRequestID, c.UserID, c.Content, c.ReadBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment of the given task request.
func (r *CommentRepository) GetByID(ctx context.Context, taskRequestID string, id int64) (*domain.Comment, error) {
	query, args, err := psql.
		Select(commentColumns...).
		From("task_request_comments").
		Where(sq.Eq{"id": id, "task_request_id": taskRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanComment(r.pool.QueryRow(ctx, query, args...))
}

// ListByTaskRequestID retrieves all comments of a task request, oldest first.
func (r *CommentRepository) ListByTaskRequestID(ctx context.Context, taskRequestID string) ([]*domain.Comment, error) {
	query, args, err := psql.
		Select(commentColumns...).
		From("task_request_comments").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return comments, nil
}

// MarkAsRead adds userID to the read-by set of a comment. Adding twice is a no-op.
func (r *CommentRepository) MarkAsRead(ctx context.Context, taskRequestID string, id int64, userID int64) error {
	query, args, err := psql.
		Update("task_request_comments").
		Set("read_by", sq.Expr("CASE WHEN ? = ANY(read_by) THEN read_by ELSE array_append(read_by, ?::bigint) END", userID, userID)).
		Where(sq.Eq{"id": id, "task_request_id": taskRequestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark comment as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewCommentError(domain.CommentNotFound, "comment %d not found", id)
	}
	return nil
}

// CountUnread counts comments on a task request that userID has not read.
func (r *CommentRepository) CountUnread(ctx context.Context, taskRequestID string, userID int64) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("task_request_comments").
		Where(sq.Eq{"task_request_id": taskRequestID}).
		Where(sq.Expr("NOT (? = ANY(read_by))", userID)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread comments: %w", err)
	}
	return count, nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.
		Delete("task_request_comments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
