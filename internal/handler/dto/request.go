package dto

import "time"

// CreateTaskRequestRequest represents the request body for POST /task-requests.
type CreateTaskRequestRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Submit      bool       `json:"submit,omitempty"` // create directly in SUBMITTED
}

// UpdateTaskRequestRequest represents the request body for PUT /task-requests/{id}.
// Absent fields keep their value.
type UpdateTaskRequestRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// NotesRequest represents the optional body of start and complete.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ReasonRequest represents the body of cancel and reject.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AssignExecutorRequest represents the request body for POST /task-requests/{id}/assign-executor.
type AssignExecutorRequest struct {
	ExecutorID int64  `json:"executor_id"`
	Notes      string `json:"notes"`
}

// CreateCommentRequest represents the request body for POST /task-requests/{id}/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CreateAttachmentRequest represents the request body for POST /task-requests/{id}/attachments.
type CreateAttachmentRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StoragePath string `json:"storage_path,omitempty"`
}

// CreateCategoryRequest represents the request body for POST /task-request-categories.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}
