package domain

import (
	"fmt"
	"slices"
	"time"
)

// MaxCommentLength is the maximum number of characters in a comment.
const MaxCommentLength = 2000

// Comment is a remark left on a task request.
type Comment struct {
	ID            int64
	TaskRequestID string
	UserID        int64
	Content       string
	ReadBy        []int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsReadBy reports whether the given user has read the comment.
func (c *Comment) IsReadBy(userID int64) bool {
	return slices.Contains(c.ReadBy, userID)
}

// CommentErrorCode identifies the kind of comment failure.
type CommentErrorCode string

const (
	CommentEmpty               CommentErrorCode = "COMMENT_EMPTY"
	CommentTooLong             CommentErrorCode = "COMMENT_TOO_LONG"
	CommentNotFound            CommentErrorCode = "COMMENT_NOT_FOUND"
	CommentForbidden           CommentErrorCode = "COMMENT_FORBIDDEN"
	CommentTaskRequestNotFound CommentErrorCode = "TASK_REQUEST_NOT_FOUND"
)

// CommentError is returned by comment operations.
type CommentError struct {
	Code    CommentErrorCode
	Message string
}

// NewCommentError creates a CommentError with a formatted message.
func NewCommentError(code CommentErrorCode, format string, args ...any) *CommentError {
	return &CommentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *CommentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another CommentError with the same code, so callers can write
// errors.Is(err, &domain.CommentError{Code: domain.CommentNotFound}).
func (e *CommentError) Is(target error) bool {
	t, ok := target.(*CommentError)
	return ok && t.Code == e.Code
}
