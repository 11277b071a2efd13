package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
)

// AddAttachmentInput describes a file already stored externally.
type AddAttachmentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string // generated when empty
}

// AttachmentService manages attachment metadata of task requests.
type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	requestRepo    *repository.TaskRequestRepository
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(attachmentRepo *repository.AttachmentRepository, requestRepo *repository.TaskRequestRepository) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		requestRepo:    requestRepo,
	}
}

func (in AddAttachmentInput) validate() error {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return fmt.Errorf("%w: file name is required", domain.ErrInvalidAttachment)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: file name must not contain path separators", domain.ErrInvalidAttachment)
	}
	if in.SizeBytes <= 0 || in.SizeBytes > domain.MaxAttachmentSize {
		return fmt.Errorf("%w: size must be between 1 and %d bytes", domain.ErrInvalidAttachment, domain.MaxAttachmentSize)
	}
	return nil
}

// Add registers an attachment uploaded by userID.
func (s *AttachmentService) Add(ctx context.Context, taskRequestID string, userID int64, in AddAttachmentInput) (*domain.Attachment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkID(taskRequestID); err != nil {
		return nil, err
	}
	if _, err := s.requestRepo.GetByID(ctx, taskRequestID); err != nil {
		return nil, err
	}

	fileName := strings.TrimSpace(in.FileName)
	storagePath := in.StoragePath
	if storagePath == "" {
		storagePath = path.Join("task-requests", taskRequestID, uuid.NewString()+"-"+fileName)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	a := &domain.Attachment{
		TaskRequestID: taskRequestID,
		UserID:        userID,
		FileName:      fileName,
		ContentType:   contentType,
		SizeBytes:     in.SizeBytes,
		StoragePath:   storagePath,
	}
	if err := s.attachmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("attachment added",
		"task_request_id", taskRequestID,
		"attachment_id", a.ID,
		"user_id", userID,
		"size_bytes", a.SizeBytes,
	)

	return a, nil
}

// List returns the attachments of a task request.
func (s *AttachmentService) List(ctx context.Context, taskRequestID string) ([]*domain.Attachment, error) {
	if err := checkID(taskRequestID); err != nil {
		return nil, err
	}
	if _, err := s.requestRepo.GetByID(ctx, taskRequestID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByTaskRequestID(ctx, taskRequestID)
}

// Delete removes an attachment. Only the uploader or an ADMIN may delete it.
func (s *AttachmentService) Delete(ctx context.Context, taskRequestID string, attachmentID int64, user *domain.User) error {
	if err := checkID(taskRequestID); err != nil {
		return err
	}

	a, err := s.attachmentRepo.GetByID(ctx, taskRequestID, attachmentID)
	if err != nil {
		return err
	}
	if !a.IsUploadedBy(user.ID) && !user.IsAdmin() {
		return fmt.Errorf("%w: user %d did not upload attachment %d", domain.ErrAttachmentForbidden, user.ID, attachmentID)
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return err
	}

	slog.Info("attachment deleted", "task_request_id", taskRequestID, "attachment_id", attachmentID, "user_id", user.ID)
	return nil
}
