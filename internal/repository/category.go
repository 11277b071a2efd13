package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
)

var categoryColumns = []string{"id", "name", "description", "is_default", "is_active", "created_at"}

// CategoryRepository handles database operations for task request categories.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsDefault, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, q Querier, id int64) (*domain.Category, error) {
	query, args, err := psql.
		Select(categoryColumns...).
		From("task_request_categories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for category %d: %w", id, err)
	}

	return scanCategory(q.QueryRow(ctx, query, args...))
}

// GetDefault retrieves the default category.
// Returns ErrNoDefaultCategory if none is marked as default.
func (r *CategoryRepository) GetDefault(ctx context.Context, q Querier) (*domain.Category, error) {
	query, args, err := psql.
		Select(categoryColumns...).
		From("task_request_categories").
		Where(sq.Eq{"is_default": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetDefault query: %w", err)
	}

	c, err := scanCategory(q.QueryRow(ctx, query, args...))
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, domain.ErrNoDefaultCategory
	}
	return c, err
}

// List retrieves all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	qb := psql.Select(categoryColumns...).From("task_request_categories").OrderBy("name ASC")
	if activeOnly {
		qb = qb.Where(sq.Eq{"is_active": true})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query for categories: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return categories, nil
}

// Create inserts a new category within a transaction.
func (r *CategoryRepository) Create(ctx context.Context, tx pgx.Tx, c *domain.Category) error {
	query, args, err := psql.
		Insert("task_request_categories").
		Columns("name", "description", "is_default", "is_active").
		Values(c.Name, c.Description, c.IsDefault, c.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for category: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrCategoryExists, c.Name)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

// ClearDefault unsets the default flag on every category.
func (r *CategoryRepository) ClearDefault(ctx context.Context, tx pgx.Tx) error {
	query, args, err := psql.
		Update("task_request_categories").
		Set("is_default", false).
		Where(sq.Eq{"is_default": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build ClearDefault query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear default category: %w", err)
	}
	return nil
}

// MarkDefault sets the default flag on a single category.
func (r *CategoryRepository) MarkDefault(ctx context.Context, tx pgx.Tx, id int64) error {
	query, args, err := psql.
		Update("task_request_categories").
		Set("is_default", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkDefault query for category %d: %w", id, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark default category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// LockDefaults serializes concurrent default changes for the rest of the transaction.
func (r *CategoryRepository) LockDefaults(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, "LOCK TABLE task_request_categories IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("lock categories: %w", err)
	}
	return nil
}
