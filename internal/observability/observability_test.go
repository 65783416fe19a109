package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger("", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel), "info is the default level")

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.Scheduled()
	m.Scheduled()
	m.Conflict("schedule", "candidate")
	m.Transition("confirm")
	m.NotifyFailed("interview_scheduled")
	m.LockWaited(3 * time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "interview_scheduler_interviews_scheduled_total 2")
	assert.Contains(t, body, `interview_scheduler_scheduling_conflicts_total{operation="schedule",role="candidate"} 1`)
	assert.Contains(t, body, `interview_scheduler_interview_transitions_total{action="confirm"} 1`)
	assert.Contains(t, body, `interview_scheduler_notification_failures_total{type="interview_scheduled"} 1`)
	assert.Contains(t, body, "interview_scheduler_lock_wait_seconds_count 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Scheduled()
	m.Conflict("schedule", "recruiter")
	m.Transition("cancel")
	m.NotifyFailed("x")
	m.LockWaited(time.Second)

	h := m.Middleware(func(*http.Request) string { return "x" })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(func(*http.Request) string { return "/interviews/{id}" })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/interviews/abc", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `interview_scheduler_http_requests_total{method="GET",route="/interviews/{id}",status="404"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	rec := &StatusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = rec.Write([]byte("ok"))
	assert.Equal(t, http.StatusOK, rec.Status())
}
