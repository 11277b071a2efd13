package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task request errors
	ErrTaskRequestNotFound    = errors.New("task request not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("task request was modified concurrently")
	ErrEmptyReason            = errors.New("reason is required")

	// Permission errors
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotRequester        = errors.New("not task request requester")
	ErrNotExecutor         = errors.New("not task request executor")
	ErrAttachmentForbidden = errors.New("not allowed to delete attachment")

	// Auth errors
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrUnauthorized = errors.New("authentication required")

	// Category errors
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInactive  = errors.New("category is inactive")
	ErrNoDefaultCategory = errors.New("no default category configured")
	ErrCategoryExists    = errors.New("category already exists")

	// Attachment errors
	ErrAttachmentNotFound = errors.New("attachment not found")

	// Activity errors
	ErrActivityNotFound = errors.New("activity not found")

	// Validation errors
	ErrInvalidStatus     = errors.New("invalid task request status")
	ErrInvalidPriority   = errors.New("invalid task request priority")
	ErrInvalidTitle      = errors.New("title must be between 3 and 200 characters")
	ErrEmptyDescription  = errors.New("description is required")
	ErrInvalidAttachment = errors.New("invalid attachment")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidPeriod     = errors.New("invalid period, must be: day, week, month, all")
)
