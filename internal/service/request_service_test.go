package service_test

import (
	"context"
	"strings"
	"time"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/repository"
	"github.com/mtlprog/bitacora/internal/service"
)

// TestCreateAndSubmit writes one history row and one created event.
func (s *ServiceTestSuite) TestCreateAndSubmit() {
	ctx := context.Background()
	category := itSupportCategoryID

	t, err := s.requests.CreateAndSubmit(ctx, requesterID, service.CreateRequestInput{
		Title:       "  Laptop will not boot  ",
		Description: "Black screen after the update",
		CategoryID:  &category,
		Priority:    domain.PriorityHigh,
	})
	s.Require().NoError(err)
	s.Equal(domain.StatusSubmitted, t.Status)
	s.Equal("Laptop will not boot", t.Title)
	s.Equal(itSupportCategoryID, t.CategoryID)
	s.Equal(domain.PriorityHigh, t.Priority)
	s.NotEmpty(t.ID)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(domain.StatusDraft, *history[0].PreviousStatus)
	s.Equal(domain.StatusSubmitted, history[0].NewStatus)

	events, err := s.outboxRepo.ListByTaskRequestID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(domain.EventTypeCreated, events[0].Type)
	s.Equal(domain.StatusSubmitted, events[0].Payload.NewStatus)
	s.Equal(requesterID, events[0].Payload.RequesterID)
}

// TestCreate_Validation rejects bad input before touching the database.
func (s *ServiceTestSuite) TestCreate_Validation() {
	ctx := context.Background()

	_, err := s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{Title: "ab", Description: "x"})
	s.ErrorIs(err, domain.ErrInvalidTitle)

	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{
		Title:       strings.Repeat("a", 201),
		Description: "x",
	})
	s.ErrorIs(err, domain.ErrInvalidTitle)

	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{Title: "Fix printer", Description: "  "})
	s.ErrorIs(err, domain.ErrEmptyDescription)

	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix printer",
		Description: "Jams",
		Priority:    "URGENT",
	})
	s.ErrorIs(err, domain.ErrInvalidPriority)

	missing := int64(999)
	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix printer",
		Description: "Jams",
		CategoryID:  &missing,
	})
	s.ErrorIs(err, domain.ErrCategoryNotFound)
}

// TestCreate_InactiveCategory refuses categories that were retired.
func (s *ServiceTestSuite) TestCreate_InactiveCategory() {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, "UPDATE task_request_categories SET is_active = FALSE WHERE id = $1", maintenanceCategoryID)
	s.Require().NoError(err)

	category := maintenanceCategoryID
	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix door",
		Description: "Hinge is loose",
		CategoryID:  &category,
	})
	s.ErrorIs(err, domain.ErrCategoryInactive)
}

// TestCreate_NoDefaultCategory fails when no category is marked default.
func (s *ServiceTestSuite) TestCreate_NoDefaultCategory() {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, "UPDATE task_request_categories SET is_default = FALSE")
	s.Require().NoError(err)

	_, err = s.requests.CreateDraft(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix printer",
		Description: "Jams",
	})
	s.ErrorIs(err, domain.ErrNoDefaultCategory)
}

// TestUpdate keeps nil fields and only works on drafts.
func (s *ServiceTestSuite) TestUpdate() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	title := "Fix the third floor printer"
	priority := domain.PriorityCritical
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	updated, err := s.requests.Update(ctx, t.ID, requesterID, domain.TaskRequestChanges{
		Title:    &title,
		Priority: &priority,
		DueDate:  &due,
	})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
	s.Equal(t.Description, updated.Description)

	stored, err := s.requestRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(title, stored.Title)
	s.Equal(domain.PriorityCritical, stored.Priority)
	s.Require().NotNil(stored.DueDate)
	s.True(due.Equal(*stored.DueDate))

	_, err = s.requests.Update(ctx, t.ID, strangerID, domain.TaskRequestChanges{Title: &title})
	s.ErrorIs(err, domain.ErrNotRequester)
}

// TestUpdate_NotDraft leaves a submitted request untouched.
func (s *ServiceTestSuite) TestUpdate_NotDraft() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)

	title := "Another title"
	_, err := s.requests.Update(ctx, t.ID, requesterID, domain.TaskRequestChanges{Title: &title})
	s.ErrorIs(err, domain.ErrInvalidTransition)

	stored, err := s.requestRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(t.Title, stored.Title)
}

// TestList filters, sorts and paginates.
func (s *ServiceTestSuite) TestList() {
	ctx := context.Background()
	s.createDraft(ctx)
	s.createInStatus(ctx, domain.StatusSubmitted)
	s.createInStatus(ctx, domain.StatusAssigned)

	page, total, err := s.requests.List(ctx, repository.TaskRequestListFilters{Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(page, 2)

	submitted, total, err := s.requests.List(ctx, repository.TaskRequestListFilters{
		Statuses: []string{string(domain.StatusSubmitted)},
		Limit:    10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(submitted, 1)
	s.Equal(domain.StatusSubmitted, submitted[0].Status)

	assigner := assignerID
	byAssigner, total, err := s.requests.List(ctx, repository.TaskRequestListFilters{AssignerID: &assigner, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(byAssigner, 1)

	_, _, err = s.requests.List(ctx, repository.TaskRequestListFilters{Statuses: []string{"OPEN"}, Limit: 10})
	s.ErrorIs(err, domain.ErrInvalidStatus)
}

// TestList_Overdue returns only non-terminal requests past their due date.
func (s *ServiceTestSuite) TestList_Overdue() {
	ctx := context.Background()
	late := s.createDraft(ctx)
	done := s.createInStatus(ctx, domain.StatusAssigned)

	_, err := s.pool.Exec(ctx, "UPDATE task_requests SET due_date = NOW() - INTERVAL '1 day' WHERE id IN ($1, $2)", late.ID, done.ID)
	s.Require().NoError(err)
	_, err = s.workflow.Complete(ctx, done.ID, assignerID, "")
	s.Require().NoError(err)

	overdue, total, err := s.requests.List(ctx, repository.TaskRequestListFilters{Overdue: true, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(overdue, 1)
	s.Equal(late.ID, overdue[0].ID)
}

// TestDelete cascades to the request's children.
func (s *ServiceTestSuite) TestDelete() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)
	_, err := s.comments.Add(ctx, t.ID, requesterID, "any news?")
	s.Require().NoError(err)

	s.Require().NoError(s.requests.Delete(ctx, t.ID))

	_, err = s.requests.Get(ctx, t.ID)
	s.ErrorIs(err, domain.ErrTaskRequestNotFound)

	events, err := s.outboxRepo.ListByTaskRequestID(ctx, t.ID)
	s.Require().NoError(err)
	s.Empty(events)

	s.ErrorIs(s.requests.Delete(ctx, t.ID), domain.ErrTaskRequestNotFound)
}
