package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()

	m.SessionCreated()
	m.SessionCreated()
	m.SessionReset()
	m.Fragment()
	m.Rejected("busy")
	m.ObserveTurn("stream", OutcomeAnswered, 1500*time.Millisecond)
	m.KnowledgeReload(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("stream", OutcomeAnswered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("busy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.knowledgeReload.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "concierge_sessions_created_total 2"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionCreated()
	m.Fragment()
	m.ObserveTurn("stream", OutcomeError, time.Second)
}
