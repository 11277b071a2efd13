// Package notify delivers task request notifications to external listeners.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/bitacora/internal/domain"
)

// Notification subjects.
const (
	SubjectCreated       = "task_request.created"
	SubjectNewRequest    = "task_request.new_request"
	SubjectStatusChanged = "task_request.status_changed"
)

// Notification is the message sent to listeners.
type Notification struct {
	Subject        string         `json:"subject"`
	TaskRequestID  string         `json:"task_request_id"`
	Title          string         `json:"title"`
	UserID         int64          `json:"user_id"`
	RequesterID    int64          `json:"requester_id"`
	PreviousStatus *domain.Status `json:"previous_status,omitempty"`
	Status         domain.Status  `json:"status"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Notifier sends notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log. It is used when no
// message broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger, or to the default
// logger when logger is nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, msg Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"subject", msg.Subject,
		"task_request_id", msg.TaskRequestID,
		"status", msg.Status,
		"user_id", msg.UserID,
	)
	return nil
}
