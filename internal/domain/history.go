package domain

import "time"

// History is an append-only record of a status change.
type History struct {
	ID             int64
	TaskRequestID  string
	UserID         int64
	PreviousStatus *Status // nil when the request was created directly in NewStatus
	NewStatus      Status
	Notes          string
	CreatedAt      time.Time
}
