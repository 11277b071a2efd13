package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

// CommentService manages the discussion thread of task requests.
// Every failure it reports itself is a *domain.CommentError.
type CommentService struct {
	commentRepo *repository.CommentRepository
	requestRepo *repository.TaskRequestRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(commentRepo *repository.CommentRepository, requestRepo *repository.TaskRequestRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		requestRepo: requestRepo,
	}
}

func (s *CommentService) requireTaskRequest(ctx context.Context, taskRequestID string) error {
	if checkID(taskRequestID) == nil {
		_, err := s.requestRepo.GetByID(ctx, taskRequestID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTaskRequestNotFound) {
			return err
		}
	}
	return domain.NewCommentError(domain.CommentTaskRequestNotFound, "task request %s not found", taskRequestID)
}

// Add posts a comment. The author has read it.
func (s *CommentService) Add(ctx context.Context, taskRequestID string, userID int64, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewCommentError(domain.CommentEmpty, "comment content is required")
	}
	if n := utf8.RuneCountInString(content); n > domain.MaxCommentLength {
		return nil, domain.NewCommentError(domain.CommentTooLong, "comment has %d characters, limit is %d", n, domain.MaxCommentLength)
	}

	if err := s.requireTaskRequest(ctx, taskRequestID); err != nil {
		return nil, err
	}

	c := &domain.Comment{
		TaskRequestID: taskRequestID,
		UserID:        userID,
		Content:       content,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("comment added", "task_request_id", taskRequestID, "comment_id", c.ID, "user_id", userID)

	return c, nil
}

// List returns the comments of a task request, oldest first.
func (s *CommentService) List(ctx context.Context, taskRequestID string) ([]*domain.Comment, error) {
	if err := s.requireTaskRequest(ctx, taskRequestID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByTaskRequestID(ctx, taskRequestID)
}

// MarkAsRead records that userID read the comment. Repeated calls are no-ops.
func (s *CommentService) MarkAsRead(ctx context.Context, taskRequestID string, commentID int64, userID int64) error {
	if err := s.requireTaskRequest(ctx, taskRequestID); err != nil {
		return err
	}
	return s.commentRepo.MarkAsRead(ctx, taskRequestID, commentID, userID)
}

// UnreadCount returns how many comments of the task request userID has not read.
func (s *CommentService) UnreadCount(ctx context.Context, taskRequestID string, userID int64) (int, error) {
	if err := s.requireTaskRequest(ctx, taskRequestID); err != nil {
		return 0, err
	}
	return s.commentRepo.CountUnread(ctx, taskRequestID, userID)
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, taskRequestID string, commentID int64, userID int64) error {
	if err := s.requireTaskRequest(ctx, taskRequestID); err != nil {
		return err
	}

	c, err := s.commentRepo.GetByID(ctx, taskRequestID, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return domain.NewCommentError(domain.CommentForbidden, "user %d is not the author of comment %d", userID, commentID)
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	slog.Info("comment deleted", "task_request_id", taskRequestID, "comment_id", commentID, "user_id", userID)
	return nil
}
