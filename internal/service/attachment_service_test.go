package service_test

import (
	"context"
	"strings"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/service"
)

// TestAttachments registers metadata and enforces delete permissions.
func (s *ServiceTestSuite) TestAttachments() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	a, err := s.attachments.Add(ctx, t.ID, requesterID, service.AddAttachmentInput{
		FileName:  "jam.jpg",
		SizeBytes: 2048,
	})
	s.Require().NoError(err)
	s.Equal("application/octet-stream", a.ContentType)
	s.True(strings.HasPrefix(a.StoragePath, "task-requests/"+t.ID+"/"))
	s.True(strings.HasSuffix(a.StoragePath, "-jam.jpg"))

	list, err := s.attachments.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	err = s.attachments.Delete(ctx, t.ID, a.ID, &domain.User{ID: strangerID, Role: domain.RoleExecutor})
	s.ErrorIs(err, domain.ErrAttachmentForbidden)

	err = s.attachments.Delete(ctx, t.ID, a.ID, &domain.User{ID: strangerID, Role: domain.RoleAdmin})
	s.Require().NoError(err)

	err = s.attachments.Delete(ctx, t.ID, a.ID, &domain.User{ID: requesterID, Role: domain.RoleRequester})
	s.ErrorIs(err, domain.ErrAttachmentNotFound)
}

// TestAttachments_Validation rejects empty and oversized files.
func (s *ServiceTestSuite) TestAttachments_Validation() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	cases := []service.AddAttachmentInput{
		{FileName: "", SizeBytes: 10},
		{FileName: "../etc/passwd", SizeBytes: 10},
		{FileName: "empty.txt", SizeBytes: 0},
		{FileName: "huge.iso", SizeBytes: domain.MaxAttachmentSize + 1},
	}
	for _, in := range cases {
		_, err := s.attachments.Add(ctx, t.ID, requesterID, in)
		s.ErrorIs(err, domain.ErrInvalidAttachment, in.FileName)
	}

	_, err := s.attachments.Add(ctx, "00000000-0000-0000-0000-0000000000ff", requesterID, service.AddAttachmentInput{
		FileName:  "ok.txt",
		SizeBytes: 1,
	})
	s.ErrorIs(err, domain.ErrTaskRequestNotFound)
}
