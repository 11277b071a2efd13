package domain

import "time"

// EventType represents the type of an outbox event.
type EventType string

const (
	EventTypeCreated       EventType = "created"
	EventTypeStatusChanged EventType = "status_changed"
)

// EventPayload is the JSON body stored with an outbox event.
type EventPayload struct {
	EventID        string  `json:"event_id"`
	TaskRequestID  string  `json:"task_request_id"`
	Title          string  `json:"title"`
	UserID         int64   `json:"user_id"`
	RequesterID    int64   `json:"requester_id"`
	ExecutorID     *int64  `json:"executor_id,omitempty"`
	PreviousStatus *Status `json:"previous_status,omitempty"`
	NewStatus      Status  `json:"new_status"`
}

// OutboxEvent is a state change waiting to be dispatched to listeners.
type OutboxEvent struct {
	ID            int64
	TaskRequestID string
	Type          EventType
	Payload       EventPayload
	Attempts      int
	LastError     *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}
