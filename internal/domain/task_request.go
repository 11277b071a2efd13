package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the workflow status of a task request.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusSubmitted  Status = "SUBMITTED"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

// IsTerminal returns true if no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// IsValid checks if the status is one of the allowed values.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusAssigned, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Priority represents the urgency of a task request.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
	PriorityTrivial  Priority = "TRIVIAL"
)

// IsValid checks if the priority is one of the allowed values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityTrivial:
		return true
	default:
		return false
	}
}

// TaskRequest is the subject of the workflow.
//
// Transition methods use value receivers and return a modified copy, so a
// loaded request is never changed in place.
type TaskRequest struct {
	ID             string
	Title          string
	Description    string
	CategoryID     int64
	Priority       Priority
	Status         Status
	RequesterID    int64
	AssignerID     *int64
	ExecutorID     *int64
	RequestDate    time.Time
	AssignmentDate *time.Time
	DueDate        *time.Time
	CompletedDate  *time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRequestedBy checks if the request was created by the given user.
func (t TaskRequest) IsRequestedBy(userID int64) bool {
	return t.RequesterID == userID
}

// IsExecutedBy checks if the given user is the executor.
func (t TaskRequest) IsExecutedBy(userID int64) bool {
	return t.ExecutorID != nil && *t.ExecutorID == userID
}

// IsOverdue reports whether the due date has passed for a non-terminal request.
func (t TaskRequest) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.Status.IsTerminal() && t.DueDate.Before(now)
}

func (t TaskRequest) expect(op string, allowed ...Status) error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s task request %s in %s status", ErrInvalidTransition, op, t.ID, t.Status)
}

func (t TaskRequest) withNotes(notes string) TaskRequest {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return t
	}
	if t.Notes == "" {
		t.Notes = notes
	} else {
		t.Notes = t.Notes + "\n" + notes
	}
	return t
}

// Submit moves a DRAFT request to SUBMITTED. Only the requester may submit.
func (t TaskRequest) Submit(requesterID int64, now time.Time) (TaskRequest, error) {
	if !t.IsRequestedBy(requesterID) {
		return t, fmt.Errorf("%w: user %d cannot submit task request %s", ErrNotRequester, requesterID, t.ID)
	}
	if err := t.expect("submit", StatusDraft); err != nil {
		return t, err
	}
	t.Status = StatusSubmitted
	t.RequestDate = now
	return t, nil
}

// Assign routes a SUBMITTED request, recording the assigner and assignment date.
func (t TaskRequest) Assign(assignerID int64, now time.Time) (TaskRequest, error) {
	if err := t.expect("assign", StatusSubmitted); err != nil {
		return t, err
	}
	t.Status = StatusAssigned
	t.AssignerID = &assignerID
	t.AssignmentDate = &now
	return t, nil
}

// AssignExecutor sets the executor of an ASSIGNED request. Status is unchanged.
func (t TaskRequest) AssignExecutor(executorID int64, notes string) (TaskRequest, error) {
	if err := t.expect("assign executor to", StatusAssigned); err != nil {
		return t, err
	}
	t.ExecutorID = &executorID
	return t.withNotes(notes), nil
}

// Start moves an ASSIGNED request to IN_PROGRESS. When no executor was set,
// the starting user becomes the executor.
func (t TaskRequest) Start(userID int64, notes string) (TaskRequest, error) {
	if err := t.expect("start", StatusAssigned); err != nil {
		return t, err
	}
	if t.ExecutorID != nil && *t.ExecutorID != userID {
		return t, fmt.Errorf("%w: user %d is not executor of task request %s", ErrNotExecutor, userID, t.ID)
	}
	t.ExecutorID = &userID
	t.Status = StatusInProgress
	return t.withNotes(notes), nil
}

// Complete finishes an ASSIGNED or IN_PROGRESS request.
func (t TaskRequest) Complete(notes string, now time.Time) (TaskRequest, error) {
	if err := t.expect("complete", StatusAssigned, StatusInProgress); err != nil {
		return t, err
	}
	t.Status = StatusCompleted
	t.CompletedDate = &now
	return t.withNotes(notes), nil
}

// Cancel aborts a non-terminal request. Only the requester may cancel.
func (t TaskRequest) Cancel(requesterID int64, reason string) (TaskRequest, error) {
	if !t.IsRequestedBy(requesterID) {
		return t, fmt.Errorf("%w: user %d cannot cancel task request %s", ErrNotRequester, requesterID, t.ID)
	}
	if t.Status.IsTerminal() {
		return t, fmt.Errorf("%w: task request %s is already %s", ErrInvalidTransition, t.ID, t.Status)
	}
	t.Status = StatusCancelled
	return t.withNotes(reason), nil
}

// Reject refuses a SUBMITTED or ASSIGNED request. A reason is required.
func (t TaskRequest) Reject(reason string) (TaskRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return t, ErrEmptyReason
	}
	if err := t.expect("reject", StatusSubmitted, StatusAssigned); err != nil {
		return t, err
	}
	t.Status = StatusRejected
	return t.withNotes(reason), nil
}

// TaskRequestChanges holds the editable fields of a DRAFT request.
// Nil fields keep their current value.
type TaskRequestChanges struct {
	Title       *string
	Description *string
	CategoryID  *int64
	Priority    *Priority
	DueDate     *time.Time
	Notes       *string
}

// Apply returns a copy with the non-nil changes applied. Only the requester may
// edit, and only while the request is a DRAFT.
func (t TaskRequest) Apply(requesterID int64, c TaskRequestChanges) (TaskRequest, error) {
	if !t.IsRequestedBy(requesterID) {
		return t, fmt.Errorf("%w: user %d cannot update task request %s", ErrNotRequester, requesterID, t.ID)
	}
	if err := t.expect("update", StatusDraft); err != nil {
		return t, err
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.CategoryID != nil {
		t.CategoryID = *c.CategoryID
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.DueDate != nil {
		due := *c.DueDate
		t.DueDate = &due
	}
	if c.Notes != nil {
		t.Notes = *c.Notes
	}
	return t, nil
}
