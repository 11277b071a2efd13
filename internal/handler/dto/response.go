package dto

import (
	"time"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
	"github.com/mtlprog/bitacora/internal/service"
)

// TaskRequestResponse represents a task request.
type TaskRequestResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CategoryID     int64      `json:"category_id"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	RequesterID    int64      `json:"requester_id"`
	AssignerID     *int64     `json:"assigner_id"`
	ExecutorID     *int64     `json:"executor_id"`
	RequestDate    time.Time  `json:"request_date"`
	AssignmentDate *time.Time `json:"assignment_date"`
	DueDate        *time.Time `json:"due_date"`
	CompletedDate  *time.Time `json:"completed_date"`
	Notes          string     `json:"notes"`
	IsOverdue      bool       `json:"is_overdue"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTaskRequestResponse converts a task request for output.
func NewTaskRequestResponse(t *domain.TaskRequest, now time.Time) TaskRequestResponse {
	return TaskRequestResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		CategoryID:     t.CategoryID,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		RequesterID:    t.RequesterID,
		AssignerID:     t.AssignerID,
		ExecutorID:     t.ExecutorID,
		RequestDate:    t.RequestDate,
		AssignmentDate: t.AssignmentDate,
		DueDate:        t.DueDate,
		CompletedDate:  t.CompletedDate,
		Notes:          t.Notes,
		IsOverdue:      t.IsOverdue(now),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// TaskRequestsListResponse represents one page of GET /task-requests.
type TaskRequestsListResponse struct {
	Items []TaskRequestResponse `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

// HistoryResponse represents one history row.
type HistoryResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewHistoryResponses converts history rows for output.
func NewHistoryResponses(history []*domain.History) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(history))
	for _, h := range history {
		var previous *string
		if h.PreviousStatus != nil {
			s := string(*h.PreviousStatus)
			previous = &s
		}
		out = append(out, HistoryResponse{
			ID:             h.ID,
			UserID:         h.UserID,
			PreviousStatus: previous,
			NewStatus:      string(h.NewStatus),
			Notes:          h.Notes,
			CreatedAt:      h.CreatedAt,
		})
	}
	return out
}

// CommentResponse represents a comment as seen by one user.
type CommentResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCommentResponse converts a comment for output to viewerID.
func NewCommentResponse(c *domain.Comment, viewerID int64) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Content:   c.Content,
		Read:      c.IsReadBy(viewerID),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CommentsListResponse represents GET /task-requests/{id}/comments.
type CommentsListResponse struct {
	Comments    []CommentResponse `json:"comments"`
	UnreadCount int               `json:"unread_count"`
}

// AttachmentResponse represents attachment metadata.
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAttachmentResponse converts an attachment for output.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		StoragePath: a.StoragePath,
		CreatedAt:   a.CreatedAt,
	}
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"is_default"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryResponse converts a category for output.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsDefault:   c.IsDefault,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

// StatsResponse represents the response for GET /task-requests/stats.
type StatsResponse struct {
	Period      string          `json:"period"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Dashboard   DashboardStats  `json:"dashboard"`
	Executors   []ExecutorStats `json:"executors"`
}

// DashboardStats represents overall counts.
type DashboardStats struct {
	CreatedInPeriod   int            `json:"created_in_period"`
	CompletedInPeriod int            `json:"completed_in_period"`
	Overdue           int            `json:"overdue"`
	ByStatus          map[string]int `json:"by_status"`
	ByPriority        map[string]int `json:"by_priority"`
}

// ExecutorStats represents the workload of one executor.
type ExecutorStats struct {
	ExecutorID      int64 `json:"executor_id"`
	TasksCompleted  int   `json:"tasks_completed"`
	TasksInProgress int   `json:"tasks_in_progress"`
}

// NewStatsResponse converts service stats for output.
func NewStatsResponse(s *service.Stats) StatsResponse {
	executors := make([]ExecutorStats, 0, len(s.Executors))
	for _, e := range s.Executors {
		executors = append(executors, newExecutorStats(e))
	}
	return StatsResponse{
		Period:      s.Period,
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
		Dashboard: DashboardStats{
			CreatedInPeriod:   s.Dashboard.CreatedInPeriod,
			CompletedInPeriod: s.Dashboard.CompletedInPeriod,
			Overdue:           s.Dashboard.OverdueCount,
			ByStatus:          s.Dashboard.ByStatus,
			ByPriority:        s.Dashboard.ByPriority,
		},
		Executors: executors,
	}
}

func newExecutorStats(e repository.ExecutorStatsResult) ExecutorStats {
	return ExecutorStats{
		ExecutorID:      e.ExecutorID,
		TasksCompleted:  e.TasksCompleted,
		TasksInProgress: e.TasksInProgress,
	}
}
