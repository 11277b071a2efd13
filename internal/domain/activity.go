package domain

import "time"

// ActivityStatus represents the execution status of an activity.
type ActivityStatus string

const (
	ActivityStatusPending    ActivityStatus = "PENDING"
	ActivityStatusInProgress ActivityStatus = "IN_PROGRESS"
	ActivityStatusCompleted  ActivityStatus = "COMPLETED"
)

// Activity is the execution record linked to a task request once work starts.
type Activity struct {
	ID            int64
	TaskRequestID string
	Title         string
	ExecutorID    *int64
	Status        ActivityStatus
	StartedAt     *time.Time
	CreatedAt     time.Time
}
