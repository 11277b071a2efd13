package service_test

import (
	"context"
	"sync"

	"github.com/mtlprog/bitacora/internal/domain"
)

// TestFullLifecycle follows a request from draft to completion.
func (s *ServiceTestSuite) TestFullLifecycle() {
	ctx := context.Background()

	t := s.createDraft(ctx)
	s.Equal(domain.StatusDraft, t.Status)
	s.Equal(generalCategoryID, t.CategoryID)
	s.Equal(domain.PriorityMedium, t.Priority)

	t, err := s.workflow.Submit(ctx, t.ID, requesterID)
	s.Require().NoError(err)
	s.Equal(domain.StatusSubmitted, t.Status)

	t, err = s.workflow.Assign(ctx, t.ID, assignerID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, t.Status)
	s.Require().NotNil(t.AssignerID)
	s.Equal(assignerID, *t.AssignerID)
	s.NotNil(t.AssignmentDate)

	t, err = s.workflow.Start(ctx, t.ID, assignerID, "on my way")
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, t.Status)
	s.True(t.IsExecutedBy(assignerID))

	t, err = s.workflow.Complete(ctx, t.ID, assignerID, "replaced the roller")
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, t.Status)
	s.NotNil(t.CompletedDate)

	stored, err := s.requestRepo.GetByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, stored.Status)
	s.Equal("on my way\nreplaced the roller", stored.Notes)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 4)

	expected := [][2]domain.Status{
		{domain.StatusDraft, domain.StatusSubmitted},
		{domain.StatusSubmitted, domain.StatusAssigned},
		{domain.StatusAssigned, domain.StatusInProgress},
		{domain.StatusInProgress, domain.StatusCompleted},
	}
	for i, h := range history {
		s.Require().NotNil(h.PreviousStatus)
		s.Equal(expected[i][0], *h.PreviousStatus, "row %d", i)
		s.Equal(expected[i][1], h.NewStatus, "row %d", i)
	}
	s.Equal(requesterID, history[0].UserID)
	s.Equal(assignerID, history[1].UserID)

	events, err := s.outboxRepo.ListByTaskRequestID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 5)
	s.Equal(domain.EventTypeCreated, events[0].Type)
	for _, e := range events[1:] {
		s.Equal(domain.EventTypeStatusChanged, e.Type)
	}
}

// TestSubmit_WrongRequester leaves the request untouched.
func (s *ServiceTestSuite) TestSubmit_WrongRequester() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	_, err := s.workflow.Submit(ctx, t.ID, strangerID)
	s.ErrorIs(err, domain.ErrNotRequester)
	s.Equal(domain.StatusDraft, s.statusOf(ctx, t.ID))
}

// TestSubmit_NotFound reports unknown and malformed ids as not found.
func (s *ServiceTestSuite) TestSubmit_NotFound() {
	ctx := context.Background()

	_, err := s.workflow.Submit(ctx, "00000000-0000-0000-0000-0000000000ff", requesterID)
	s.ErrorIs(err, domain.ErrTaskRequestNotFound)

	_, err = s.workflow.Submit(ctx, "not-a-uuid", requesterID)
	s.ErrorIs(err, domain.ErrTaskRequestNotFound)
}

// TestAssign_NotSubmitted fails with an invalid transition and writes no history.
func (s *ServiceTestSuite) TestAssign_NotSubmitted() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	_, err := s.workflow.Assign(ctx, t.ID, assignerID)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

// TestAssignExecutor sets the executor without a history row.
func (s *ServiceTestSuite) TestAssignExecutor() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusAssigned)

	updated, err := s.workflow.AssignExecutor(ctx, t.ID, assignerID, executorID, "urgent")
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, updated.Status)
	s.Require().NotNil(updated.ExecutorID)
	s.Equal(executorID, *updated.ExecutorID)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Len(history, 2)

	_, err = s.workflow.Start(ctx, t.ID, strangerID, "")
	s.ErrorIs(err, domain.ErrNotExecutor)

	started, err := s.workflow.Start(ctx, t.ID, executorID, "")
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, started.Status)
}

// TestAssignExecutor_NotAssigned fails before assignment.
func (s *ServiceTestSuite) TestAssignExecutor_NotAssigned() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)

	_, err := s.workflow.AssignExecutor(ctx, t.ID, assignerID, executorID, "")
	s.ErrorIs(err, domain.ErrInvalidTransition)
}

// TestComplete_FromAssigned skips IN_PROGRESS.
func (s *ServiceTestSuite) TestComplete_FromAssigned() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusAssigned)

	completed, err := s.workflow.Complete(ctx, t.ID, assignerID, "")
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, completed.Status)
}

// TestCancel covers the requester check and terminal states.
func (s *ServiceTestSuite) TestCancel() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusInProgress)

	_, err := s.workflow.Cancel(ctx, t.ID, strangerID, "not mine")
	s.ErrorIs(err, domain.ErrNotRequester)
	s.Equal(domain.StatusInProgress, s.statusOf(ctx, t.ID))

	cancelled, err := s.workflow.Cancel(ctx, t.ID, requesterID, "no longer needed")
	s.Require().NoError(err)
	s.Equal(domain.StatusCancelled, cancelled.Status)

	_, err = s.workflow.Cancel(ctx, t.ID, requesterID, "again")
	s.ErrorIs(err, domain.ErrInvalidTransition)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	last := history[len(history)-1]
	s.Equal(domain.StatusCancelled, last.NewStatus)
	s.Equal("no longer needed", last.Notes)
}

// TestReject requires a reason and a SUBMITTED or ASSIGNED request.
func (s *ServiceTestSuite) TestReject() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)

	_, err := s.workflow.Reject(ctx, t.ID, assignerID, " ")
	s.ErrorIs(err, domain.ErrEmptyReason)
	s.Equal(domain.StatusSubmitted, s.statusOf(ctx, t.ID))

	rejected, err := s.workflow.Reject(ctx, t.ID, assignerID, "duplicate of another request")
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, rejected.Status)

	started := s.createInStatus(ctx, domain.StatusInProgress)
	_, err = s.workflow.Reject(ctx, started.ID, assignerID, "too late")
	s.ErrorIs(err, domain.ErrInvalidTransition)
}

// TestConcurrentAssign lets exactly one of two racing assigners win.
func (s *ServiceTestSuite) TestConcurrentAssign() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusSubmitted)

	const racers = 2
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.workflow.Assign(ctx, t.ID, assignerID+int64(i))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, domain.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)

	history, err := s.historyService.List(ctx, t.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}
