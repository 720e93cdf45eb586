package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counts(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := New()

	// --- Act ---
	m.Package(OutcomeIndexed, "")
	m.Package(OutcomeIndexed, "")
	m.Package(OutcomeFailed, "structural")
	m.AddSegments(3)
	m.AddSegments(0)
	m.ObserveStage("resolve", time.Now())

	// --- Assert ---
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Packages.WithLabelValues(OutcomeIndexed, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Packages.WithLabelValues(OutcomeFailed, "structural")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Segments))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestMetrics_NilRecordsNothing(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.Package(OutcomeInvalid, "validation")
		m.AddSegments(1)
		m.ObserveStage("validate", time.Now())
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.AddSegments(5)
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ocfl_tools_segments_total 5"))
}
