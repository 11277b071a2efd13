package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/metrics"
	"github.com/mtlprog/bitacora/internal/repository"
)

// WorkflowService drives task requests through their status workflow.
//
// Every operation runs in one transaction: the row is locked, the transition
// is applied to a copy, the copy is saved with a status compare-and-set, and
// the history row and outbox event are written before commit.
type WorkflowService struct {
	pool        *pgxpool.Pool
	requestRepo *repository.TaskRequestRepository
	outboxRepo  *repository.OutboxRepository
	history     *HistoryService
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewWorkflowService creates a new WorkflowService. m may be nil.
func NewWorkflowService(
	pool *pgxpool.Pool,
	requestRepo *repository.TaskRequestRepository,
	outboxRepo *repository.OutboxRepository,
	history *HistoryService,
	m *metrics.Metrics,
) *WorkflowService {
	return &WorkflowService{
		pool:        pool,
		requestRepo: requestRepo,
		outboxRepo:  outboxRepo,
		history:     history,
		metrics:     m,
		now:         time.Now,
	}
}

// checkID rejects identifiers that cannot name a stored task request.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q is not a valid id", domain.ErrTaskRequestNotFound, id)
	}
	return nil
}

// statusChangedEvent builds the outbox event for a status change.
func statusChangedEvent(t *domain.TaskRequest, userID int64, previous domain.Status) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		TaskRequestID: t.ID,
		Type:          domain.EventTypeStatusChanged,
		Payload: domain.EventPayload{
			EventID:        uuid.NewString(),
			TaskRequestID:  t.ID,
			Title:          t.Title,
			UserID:         userID,
			RequesterID:    t.RequesterID,
			ExecutorID:     t.ExecutorID,
			PreviousStatus: &previous,
			NewStatus:      t.Status,
		},
	}
}

// transitionFunc derives the next state of a task request.
type transitionFunc func(current domain.TaskRequest, now time.Time) (domain.TaskRequest, error)

// transition runs one workflow operation. A status change writes a history
// row and a status_changed event. Changes that keep the status, such as
// setting the executor, only save the row.
func (s *WorkflowService) transition(
	ctx context.Context,
	op string,
	id string,
	userID int64,
	notes string,
	apply transitionFunc,
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

	next, err := apply(*current, s.now())
	if err != nil {
		s.metrics.Rejected(op)
		return nil, err
	}

	if err := s.requestRepo.Save(ctx, tx, current.Status, &next); err != nil {
		return nil, err
	}

	if next.Status != current.Status {
		previous := current.Status
		if _, err := s.history.Record(ctx, tx, next.ID, userID, &previous, next.Status, notes); err != nil {
			return nil, err
		}
		if err := s.createEventAndCommit(ctx, tx, statusChangedEvent(&next, userID, previous)); err != nil {
			return nil, err
		}
		s.metrics.Transition(previous, next.Status)
	} else if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task request "+op,
		"task_request_id", next.ID,
		"user_id", userID,
		"old_status", current.Status,
		"new_status", next.Status,
	)

	return &next, nil
}

// createEventAndCommit persists an outbox event within the transaction, then commits.
func (s *WorkflowService) createEventAndCommit(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Submit moves a DRAFT request to SUBMITTED on behalf of its requester.
func (s *WorkflowService) Submit(ctx context.Context, id string, requesterID int64) (*domain.TaskRequest, error) {
	return s.transition(ctx, "submitted", id, requesterID, "",
		func(t domain.TaskRequest, now time.Time) (domain.TaskRequest, error) {
			return t.Submit(requesterID, now)
		})
}

// Assign routes a SUBMITTED request.
func (s *WorkflowService) Assign(ctx context.Context, id string, assignerID int64) (*domain.TaskRequest, error) {
	return s.transition(ctx, "assigned", id, assignerID, "",
		func(t domain.TaskRequest, now time.Time) (domain.TaskRequest, error) {
			return t.Assign(assignerID, now)
		})
}

// AssignExecutor sets the executor of an ASSIGNED request. No history row is
// written because the status does not change.
func (s *WorkflowService) AssignExecutor(
	ctx context.Context,
	id string,
	assignerID int64,
	executorID int64,
	notes string,
) (*domain.TaskRequest, error) {
	return s.transition(ctx, "executor assigned", id, assignerID, notes,
		func(t domain.TaskRequest, _ time.Time) (domain.TaskRequest, error) {
			return t.AssignExecutor(executorID, notes)
		})
}

// Start moves an ASSIGNED request to IN_PROGRESS.
func (s *WorkflowService) Start(ctx context.Context, id string, userID int64, notes string) (*domain.TaskRequest, error) {
	return s.transition(ctx, "started", id, userID, notes,
		func(t domain.TaskRequest, _ time.Time) (domain.TaskRequest, error) {
			return t.Start(userID, notes)
		})
}

// Complete finishes an ASSIGNED or IN_PROGRESS request.
func (s *WorkflowService) Complete(ctx context.Context, id string, userID int64, notes string) (*domain.TaskRequest, error) {
	return s.transition(ctx, "completed", id, userID, notes,
		func(t domain.TaskRequest, now time.Time) (domain.TaskRequest, error) {
			return t.Complete(notes, now)
		})
}

// Cancel aborts a non-terminal request on behalf of its requester.
func (s *WorkflowService) Cancel(ctx context.Context, id string, requesterID int64, reason string) (*domain.TaskRequest, error) {
	return s.transition(ctx, "cancelled", id, requesterID, reason,
		func(t domain.TaskRequest, _ time.Time) (domain.TaskRequest, error) {
			return t.Cancel(requesterID, reason)
		})
}

// Reject refuses a SUBMITTED or ASSIGNED request. The reason is mandatory.
func (s *WorkflowService) Reject(ctx context.Context, id string, userID int64, reason string) (*domain.TaskRequest, error) {
	return s.transition(ctx, "rejected", id, userID, reason,
		func(t domain.TaskRequest, _ time.Time) (domain.TaskRequest, error) {
			return t.Reject(reason)
		})
}
