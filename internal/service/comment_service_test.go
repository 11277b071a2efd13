package service_test

import (
	"context"
	"strings"

	"github.com/mtlprog/bitacora/internal/domain"
)

// TestComments covers the comment thread of a request.
func (s *ServiceTestSuite) TestComments() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)

	c, err := s.comments.Add(ctx, t.ID, requesterID, "  Any update?  ")
	s.Require().NoError(err)
	s.Equal("Any update?", c.Content)
	s.True(c.IsReadBy(requesterID))

	unread, err := s.comments.UnreadCount(ctx, t.ID, assignerID)
	s.Require().NoError(err)
	s.Equal(1, unread)

	unread, err = s.comments.UnreadCount(ctx, t.ID, requesterID)
	s.Require().NoError(err)
	s.Equal(0, unread)

	s.Require().NoError(s.comments.MarkAsRead(ctx, t.ID, c.ID, assignerID))
	s.Require().NoError(s.comments.MarkAsRead(ctx, t.ID, c.ID, assignerID))

	list, err := s.comments.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.ElementsMatch([]int64{requesterID, assignerID}, list[0].ReadBy)

	unread, err = s.comments.UnreadCount(ctx, t.ID, assignerID)
	s.Require().NoError(err)
	s.Equal(0, unread)
}

// TestComments_Validation returns coded comment errors.
func (s *ServiceTestSuite) TestComments_Validation() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	_, err := s.comments.Add(ctx, t.ID, requesterID, "   ")
	s.True(isCommentError(err, domain.CommentEmpty), err)

	_, err = s.comments.Add(ctx, t.ID, requesterID, strings.Repeat("x", domain.MaxCommentLength+1))
	s.True(isCommentError(err, domain.CommentTooLong), err)

	_, err = s.comments.Add(ctx, t.ID, requesterID, strings.Repeat("x", domain.MaxCommentLength))
	s.NoError(err)

	_, err = s.comments.Add(ctx, "00000000-0000-0000-0000-0000000000ff", requesterID, "hello")
	s.True(isCommentError(err, domain.CommentTaskRequestNotFound), err)

	err = s.comments.MarkAsRead(ctx, t.ID, 999, requesterID)
	s.True(isCommentError(err, domain.CommentNotFound), err)
}

// TestDeleteComment allows only the author.
func (s *ServiceTestSuite) TestDeleteComment() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	c, err := s.comments.Add(ctx, t.ID, requesterID, "first")
	s.Require().NoError(err)

	err = s.comments.Delete(ctx, t.ID, c.ID, strangerID)
	s.True(isCommentError(err, domain.CommentForbidden), err)

	s.Require().NoError(s.comments.Delete(ctx, t.ID, c.ID, requesterID))

	err = s.comments.Delete(ctx, t.ID, c.ID, requesterID)
	s.True(isCommentError(err, domain.CommentNotFound), err)
}
