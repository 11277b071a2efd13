package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

const (
	minTitleLength = 3
	maxTitleLength = 200
)

// CreateRequestInput holds the fields a requester provides for a new request.
type CreateRequestInput struct {
	Title       string
	Description string
	CategoryID  *int64 // nil selects the default category
	Priority    domain.Priority
	DueDate     *time.Time
	Notes       string
}

// RequestService implements the create, update and query use cases.
type RequestService struct {
	pool         *pgxpool.Pool
	requestRepo  *repository.TaskRequestRepository
	categoryRepo *repository.CategoryRepository
	outboxRepo   *repository.OutboxRepository
	history      *HistoryService
	now          func() time.Time
}

// NewRequestService creates a new RequestService.
func NewRequestService(
	pool *pgxpool.Pool,
	requestRepo *repository.TaskRequestRepository,
	categoryRepo *repository.CategoryRepository,
	outboxRepo *repository.OutboxRepository,
	history *HistoryService,
) *RequestService {
	return &RequestService{
		pool:         pool,
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		history:      history,
		now:          time.Now,
	}
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < minTitleLength || n > maxTitleLength {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidTitle, n)
	}
	return nil
}

func validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return domain.ErrEmptyDescription
	}
	return nil
}

func validatePriority(p domain.Priority) error {
	if !p.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPriority, p)
	}
	return nil
}

func (in CreateRequestInput) validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if in.Priority != "" {
		return validatePriority(in.Priority)
	}
	return nil
}

// resolveCategory returns the explicit category when id is set, else the
// default one. The category must be active.
func (s *RequestService) resolveCategory(ctx context.Context, q repository.Querier, id *int64) (*domain.Category, error) {
	var (
		category *domain.Category
		err      error
	)
	if id != nil {
		category, err = s.categoryRepo.GetByID(ctx, q, *id)
	} else {
		category, err = s.categoryRepo.GetDefault(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryInactive, category.Name)
	}
	return category, nil
}

// CreateDraft stores a new request in DRAFT status.
func (s *RequestService) CreateDraft(ctx context.Context, requesterID int64, in CreateRequestInput) (*domain.TaskRequest, error) {
	return s.create(ctx, requesterID, in, false)
}

// CreateAndSubmit stores a new request directly in SUBMITTED status and
// records the DRAFT to SUBMITTED history row.
func (s *RequestService) CreateAndSubmit(ctx context.Context, requesterID int64, in CreateRequestInput) (*domain.TaskRequest, error) {
	return s.create(ctx, requesterID, in, true)
}

func (s *RequestService) create(ctx context.Context, requesterID int64, in CreateRequestInput, submit bool) (*domain.TaskRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	category, err := s.resolveCategory(ctx, tx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	status := domain.StatusDraft
	if submit {
		status = domain.StatusSubmitted
	}

	t, err := s.requestRepo.Create(ctx, tx, &domain.TaskRequest{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  category.ID,
		Priority:    priority,
		Status:      status,
		RequesterID: requesterID,
		RequestDate: s.now(),
		DueDate:     in.DueDate,
		Notes:       strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return nil, err
	}

	if submit {
		draft := domain.StatusDraft
		if _, err := s.history.Record(ctx, tx, t.ID, requesterID, &draft, t.Status, ""); err != nil {
			return nil, err
		}
	}

	if err := s.createEventAndCommit(ctx, tx, &domain.OutboxEvent{
		TaskRequestID: t.ID,
		Type:          domain.EventTypeCreated,
		Payload: domain.EventPayload{
			EventID:       uuid.NewString(),
			TaskRequestID: t.ID,
			Title:         t.Title,
			UserID:        requesterID,
			RequesterID:   requesterID,
			NewStatus:     t.Status,
		},
	}); err != nil {
		return nil, err
	}

	slog.Info("task request created",
		"task_request_id", t.ID,
		"user_id", requesterID,
		"status", t.Status,
		"category_id", t.CategoryID,
	)

	return t, nil
}

func (s *RequestService) createEventAndCommit(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *RequestService) validateChanges(ctx context.Context, tx pgx.Tx, c domain.TaskRequestChanges) error {
	if c.Title != nil {
		if err := validateTitle(*c.Title); err != nil {
			return err
		}
	}
	if c.Description != nil {
		if err := validateDescription(*c.Description); err != nil {
			return err
		}
	}
	if c.Priority != nil {
		if err := validatePriority(*c.Priority); err != nil {
			return err
		}
	}
	if c.CategoryID != nil {
		if _, err := s.resolveCategory(ctx, tx, c.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// Update edits a DRAFT request. Nil fields in changes keep their value.
// A failed update leaves the stored row untouched.
func (s *RequestService) Update(
	ctx context.Context,
	id string,
	requesterID int64,
	changes domain.TaskRequestChanges,
) (*domain.TaskRequest, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	current, err := s.requestRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateChanges(ctx, tx, changes); err != nil {
		return nil, err
	}
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		changes.Title = &title
	}

	updated, err := current.Apply(requesterID, changes)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.Save(ctx, tx, current.Status, &updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task request updated",
		"task_request_id", id,
		"user_id", requesterID,
	)

	return &updated, nil
}

// Get retrieves a task request.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.TaskRequest, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, id)
}

// List retrieves a page of task requests and the total match count.
func (s *RequestService) List(ctx context.Context, filters repository.TaskRequestListFilters) ([]*domain.TaskRequest, int, error) {
	for _, st := range filters.Statuses {
		if !domain.Status(st).IsValid() {
			return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, st)
		}
	}
	for _, p := range filters.Priorities {
		if err := validatePriority(domain.Priority(p)); err != nil {
			return nil, 0, err
		}
	}
	return s.requestRepo.List(ctx, filters)
}

// Delete removes a task request together with its comments, attachments,
// history and events.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.requestRepo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("task request deleted", "task_request_id", id)
	return nil
}
