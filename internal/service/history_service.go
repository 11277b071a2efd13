package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

// HistoryService keeps the append-only status history of task requests.
type HistoryService struct {
	historyRepo *repository.HistoryRepository
	requestRepo *repository.TaskRequestRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(historyRepo *repository.HistoryRepository, requestRepo *repository.TaskRequestRepository) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		requestRepo: requestRepo,
	}
}

// Record appends a history row inside the caller's transaction.
// previous is nil when the request is created directly in its first status.
func (s *HistoryService) Record(
	ctx context.Context,
	tx pgx.Tx,
	taskRequestID string,
	userID int64,
	previous *domain.Status,
	next domain.Status,
	notes string,
) (*domain.History, error) {
	h := &domain.History{
		TaskRequestID:  taskRequestID,
		UserID:         userID,
		PreviousStatus: previous,
		NewStatus:      next,
		Notes:          notes,
	}
	if err := s.historyRepo.Create(ctx, tx, h); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	return h, nil
}

// List returns the history of a task request in chronological order.
func (s *HistoryService) List(ctx context.Context, taskRequestID string) ([]*domain.History, error) {
	if err := checkID(taskRequestID); err != nil {
		return nil, err
	}
	if _, err := s.requestRepo.GetByID(ctx, taskRequestID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByTaskRequestID(ctx, taskRequestID)
}
