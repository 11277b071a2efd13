package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/bitacora/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

var commentErrorStatus = map[domain.CommentErrorCode]int{
	domain.CommentEmpty:               http.StatusUnprocessableEntity,
	domain.CommentTooLong:             http.StatusUnprocessableEntity,
	domain.CommentNotFound:            http.StatusNotFound,
	domain.CommentForbidden:           http.StatusForbidden,
	domain.CommentTaskRequestNotFound: http.StatusNotFound,
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	var commentErr *domain.CommentError
	if errors.As(err, &commentErr) {
		if status, ok := commentErrorStatus[commentErr.Code]; ok {
			return status, string(commentErr.Code), commentErr.Message
		}
	}

	switch {
	// Task request errors
	case errors.Is(err, domain.ErrTaskRequestNotFound):
		return http.StatusNotFound, "TASK_REQUEST_NOT_FOUND", message
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", message
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "CONCURRENT_MODIFICATION", message
	case errors.Is(err, domain.ErrEmptyReason):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Permission errors
	case errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrNotRequester),
		errors.Is(err, domain.ErrNotExecutor):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrAttachmentForbidden):
		return http.StatusForbidden, "ATTACHMENT_FORBIDDEN", message

	// Auth errors
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", message

	// Category errors
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, "CATEGORY_NOT_FOUND", message
	case errors.Is(err, domain.ErrNoDefaultCategory):
		return http.StatusConflict, "NO_DEFAULT_CATEGORY", message
	case errors.Is(err, domain.ErrCategoryExists):
		return http.StatusConflict, "CATEGORY_EXISTS", message
	case errors.Is(err, domain.ErrCategoryInactive):
		return http.StatusUnprocessableEntity, "CATEGORY_INACTIVE", message

	// Attachment errors
	case errors.Is(err, domain.ErrAttachmentNotFound):
		return http.StatusNotFound, "ATTACHMENT_NOT_FOUND", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrInvalidAttachment),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
