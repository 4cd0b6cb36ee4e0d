package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLRecorderCountsOutcomes(t *testing.T) {
	before := testutil.ToFloat64(mlAttempts.WithLabelValues("timeout"))
	MLRecorder{}.ObserveAttempt("timeout", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(mlAttempts.WithLabelValues("timeout")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RequestStarted()
	RequestFinished("GET", "/api/v1/health", 200, time.Millisecond)
	RecordAnalysis("completed")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "groomify_http_requests_total")
	assert.Contains(t, string(body), `groomify_analysis_submissions_total{state="completed"}`)
}
