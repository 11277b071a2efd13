package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

const maxCategoryNameLength = 100

// CategoryService manages task request categories and the single default.
type CategoryService struct {
	pool         *pgxpool.Pool
	categoryRepo *repository.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(pool *pgxpool.Pool, categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{
		pool:         pool,
		categoryRepo: categoryRepo,
	}
}

// Create adds an active category. When isDefault is set, the previous
// default loses its flag in the same transaction.
func (s *CategoryService) Create(ctx context.Context, name, description string, isDefault bool) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxCategoryNameLength {
		return nil, fmt.Errorf("%w: name must be between 1 and %d characters", domain.ErrInvalidCategory, maxCategoryNameLength)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if isDefault {
		if err := s.categoryRepo.LockDefaults(ctx, tx); err != nil {
			return nil, err
		}
		if err := s.categoryRepo.ClearDefault(ctx, tx); err != nil {
			return nil, err
		}
	}

	c := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsDefault:   isDefault,
		IsActive:    true,
	}
	if err := s.categoryRepo.Create(ctx, tx, c); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("category created", "category_id", c.ID, "name", c.Name, "is_default", c.IsDefault)

	return c, nil
}

// List returns categories ordered by name.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, s.pool, id)
}

// GetDefault returns the default category, or ErrNoDefaultCategory.
func (s *CategoryService) GetDefault(ctx context.Context) (*domain.Category, error) {
	return s.categoryRepo.GetDefault(ctx, s.pool)
}

// SetAsDefault makes id the only default category. The previous default is
// cleared in the same transaction, so readers never see two defaults.
func (s *CategoryService) SetAsDefault(ctx context.Context, id int64) (*domain.Category, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.categoryRepo.LockDefaults(ctx, tx); err != nil {
		return nil, err
	}

	c, err := s.categoryRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryInactive, c.Name)
	}

	if err := s.categoryRepo.ClearDefault(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.MarkDefault(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	c.IsDefault = true
	slog.Info("default category changed", "category_id", c.ID, "name", c.Name)

	return c, nil
}
