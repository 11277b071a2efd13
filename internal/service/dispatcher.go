package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/metrics"
	"github.com/mtlprog/bitacora/internal/notify"
	"github.com/mtlprog/bitacora/internal/repository"
)

const (
	// DefaultDispatchBatchSize is the number of events claimed per batch.
	DefaultDispatchBatchSize = 50
	// MaxDispatchAttempts is how many times an event is tried before it is left alone.
	MaxDispatchAttempts = 5
)

// Dispatcher consumes the task request outbox and runs the listeners:
// notifications for new and changed requests, and the Activity record for
// requests that enter IN_PROGRESS.
//
// A listener failure never affects the transaction that wrote the event.
// Failed events are retried on later batches up to MaxDispatchAttempts.
type Dispatcher struct {
	pool         *pgxpool.Pool
	outboxRepo   *repository.OutboxRepository
	activityRepo *repository.ActivityRepository
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	batchSize    int
	now          func() time.Time
}

// NewDispatcher creates a new Dispatcher. m may be nil.
func NewDispatcher(
	pool *pgxpool.Pool,
	outboxRepo *repository.OutboxRepository,
	activityRepo *repository.ActivityRepository,
	notifier notify.Notifier,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		pool:         pool,
		outboxRepo:   outboxRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
		metrics:      m,
		batchSize:    DefaultDispatchBatchSize,
		now:          time.Now,
	}
}

// Run dispatches a batch every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	slog.Info("event dispatcher started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("event dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("event dispatch failed", "error", err)
			}
		}
	}
}

// DispatchOnce handles one batch of pending events and returns how many were
// processed successfully.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	started := time.Now()
	defer d.metrics.DispatchBatch(started)

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	events, err := d.outboxRepo.ClaimPending(ctx, tx, d.batchSize, MaxDispatchAttempts)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, event := range events {
		err := d.dispatch(ctx, tx, event)
		d.metrics.Event(event.Type, err)

		if err != nil {
			slog.Warn("event listener failed",
				"event_id", event.ID,
				"task_request_id", event.TaskRequestID,
				"type", event.Type,
				"attempt", event.Attempts+1,
				"error", err,
			)
			if err := d.outboxRepo.MarkFailed(ctx, tx, event.ID, err); err != nil {
				return processed, err
			}
			continue
		}

		if err := d.outboxRepo.MarkProcessed(ctx, tx, event.ID); err != nil {
			return processed, err
		}
		processed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	if len(events) > 0 {
		slog.Debug("event batch dispatched", "claimed", len(events), "processed", processed)
	}

	return processed, nil
}

// dispatch runs the listeners of one event inside a savepoint, so a failed
// listener only discards its own writes.
func (d *Dispatcher) dispatch(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	defer rollback(ctx, sp)

	switch event.Type {
	case domain.EventTypeCreated:
		d.onCreated(ctx, event)
	case domain.EventTypeStatusChanged:
		if err := d.onStatusChanged(ctx, sp, event); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// onCreated announces a submitted request globally and to the assigners.
func (d *Dispatcher) onCreated(ctx context.Context, event *domain.OutboxEvent) {
	if event.Payload.NewStatus != domain.StatusSubmitted {
		return
	}
	d.notify(ctx, notify.SubjectCreated, event)
	d.notify(ctx, notify.SubjectNewRequest, event)
}

// onStatusChanged starts the linked Activity when work begins, then announces
// the change.
func (d *Dispatcher) onStatusChanged(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	if event.Payload.NewStatus == domain.StatusInProgress {
		if err := d.startActivity(ctx, tx, event); err != nil {
			return err
		}
	}
	d.notify(ctx, notify.SubjectStatusChanged, event)
	return nil
}

func (d *Dispatcher) startActivity(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	activity, err := d.activityRepo.CreateIfMissing(ctx, tx, &domain.Activity{
		TaskRequestID: event.TaskRequestID,
		Title:         event.Payload.Title,
		ExecutorID:    event.Payload.ExecutorID,
	})
	if err != nil {
		return err
	}

	if activity.Status != domain.ActivityStatusPending {
		return nil
	}

	if err := d.activityRepo.Start(ctx, tx, activity.ID, event.Payload.ExecutorID, d.now()); err != nil {
		return err
	}

	slog.Info("activity started",
		"activity_id", activity.ID,
		"task_request_id", event.TaskRequestID,
	)
	return nil
}

// notify sends one notification. Delivery is best effort: failures are
// logged and counted but never fail the event.
func (d *Dispatcher) notify(ctx context.Context, subject string, event *domain.OutboxEvent) {
	err := d.notifier.Notify(ctx, notify.Notification{
		Subject:        subject,
		TaskRequestID:  event.TaskRequestID,
		Title:          event.Payload.Title,
		UserID:         event.Payload.UserID,
		RequesterID:    event.Payload.RequesterID,
		PreviousStatus: event.Payload.PreviousStatus,
		Status:         event.Payload.NewStatus,
		OccurredAt:     event.CreatedAt,
	})
	d.metrics.Notification(subject, err)
	if err != nil {
		slog.Warn("notification failed",
			"subject", subject,
			"task_request_id", event.TaskRequestID,
			"error", err,
		)
	}
}
