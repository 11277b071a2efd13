package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Transition(domain.StatusDraft, domain.StatusSubmitted)
	m.Transition(domain.StatusDraft, domain.StatusSubmitted)
	m.Rejected("submit")
	m.Event(domain.EventTypeCreated, nil)
	m.Notification("task_request.created", errors.New("nats down"))
	m.DispatchBatch(time.Now())

	count, err := testutil.GatherAndCount(reg, "bitacora_task_request_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	srv := httptest.NewServer(metrics.Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bitacora_task_request_transitions_total{from="DRAFT",to="SUBMITTED"} 2`)
	assert.Contains(t, string(body), `bitacora_notifications_total{result="error",subject="task_request.created"} 1`)
	assert.Contains(t, string(body), `bitacora_outbox_events_total{result="ok",type="created"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Transition(domain.StatusDraft, domain.StatusSubmitted)
		m.Rejected("submit")
		m.Event(domain.EventTypeCreated, nil)
		m.Notification("x", nil)
		m.DispatchBatch(time.Now())
	})
}
