package service_test

import (
	"context"
	"errors"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/notify"
	"github.com/mtlprog/bitacora/internal/service"
)

// TestDispatch_CreatedAndSubmitted sends the two creation notifications.
func (s *ServiceTestSuite) TestDispatch_CreatedAndSubmitted() {
	ctx := context.Background()

	_, err := s.requests.CreateAndSubmit(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix printer",
		Description: "Jams",
	})
	s.Require().NoError(err)

	processed, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, processed)
	s.Equal([]string{notify.SubjectCreated, notify.SubjectNewRequest}, s.notifier.subjects())

	// Nothing left to do.
	processed, err = s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(0, processed)
}

// TestDispatch_DraftIsSilent does not announce drafts.
func (s *ServiceTestSuite) TestDispatch_DraftIsSilent() {
	ctx := context.Background()
	s.createDraft(ctx)

	processed, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, processed)
	s.Empty(s.notifier.subjects())
}

// TestDispatch_StartCreatesActivity links exactly one activity to a started
// request, even when the event is delivered twice.
func (s *ServiceTestSuite) TestDispatch_StartCreatesActivity() {
	ctx := context.Background()
	t := s.createInStatus(ctx, domain.StatusInProgress)

	_, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)

	activity, err := s.activityRepo.GetByTaskRequestID(ctx, s.pool, t.ID)
	s.Require().NoError(err)
	s.Equal(domain.ActivityStatusInProgress, activity.Status)
	s.Equal(t.Title, activity.Title)
	s.Require().NotNil(activity.ExecutorID)
	s.Equal(executorID, *activity.ExecutorID)
	s.NotNil(activity.StartedAt)

	// Replay the IN_PROGRESS event.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO task_request_events (task_request_id, type, payload)
		SELECT task_request_id, type, payload FROM task_request_events
		WHERE task_request_id = $1 AND payload->>'new_status' = 'IN_PROGRESS'
	`, t.ID)
	s.Require().NoError(err)

	processed, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, processed)

	var count int
	err = s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM activities WHERE task_request_id = $1", t.ID).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)

	subjects := s.notifier.subjects()
	statusChanged := 0
	for _, subject := range subjects {
		if subject == notify.SubjectStatusChanged {
			statusChanged++
		}
	}
	// SUBMITTED, ASSIGNED, IN_PROGRESS and the replay.
	s.Equal(4, statusChanged)
}

// TestDispatch_NotifierFailureIsSwallowed still marks the event processed.
func (s *ServiceTestSuite) TestDispatch_NotifierFailureIsSwallowed() {
	ctx := context.Background()
	s.notifier.err = errors.New("broker unavailable")

	t, err := s.requests.CreateAndSubmit(ctx, requesterID, service.CreateRequestInput{
		Title:       "Fix printer",
		Description: "Jams",
	})
	s.Require().NoError(err)

	processed, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, processed)

	events, err := s.outboxRepo.ListByTaskRequestID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.NotNil(events[0].ProcessedAt)
}

// TestDispatch_FailedEventIsRetriedThenAbandoned records failures and stops
// after the attempt limit.
func (s *ServiceTestSuite) TestDispatch_FailedEventIsRetriedThenAbandoned() {
	ctx := context.Background()
	t := s.createDraft(ctx)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_request_events (task_request_id, type, payload)
		VALUES ($1, 'archived', '{"new_status": "DRAFT"}')
	`, t.ID)
	s.Require().NoError(err)

	processed, err := s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, processed, "the created event succeeds")

	for range service.MaxDispatchAttempts - 1 {
		processed, err = s.dispatcher.DispatchOnce(ctx)
		s.Require().NoError(err)
		s.Equal(0, processed)
	}

	events, err := s.outboxRepo.ListByTaskRequestID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	failed := events[1]
	s.Nil(failed.ProcessedAt)
	s.Equal(service.MaxDispatchAttempts, failed.Attempts)
	s.Require().NotNil(failed.LastError)
	s.Contains(*failed.LastError, "unknown event type")

	// Exhausted events are no longer claimed.
	processed, err = s.dispatcher.DispatchOnce(ctx)
	s.Require().NoError(err)
	s.Equal(0, processed)

	var attempts int
	err = s.pool.QueryRow(ctx, "SELECT attempts FROM task_request_events WHERE id = $1", failed.ID).Scan(&attempts)
	s.Require().NoError(err)
	s.Equal(service.MaxDispatchAttempts, attempts)
}
