package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStatusChange(t *testing.T) {
	before := testutil.ToFloat64(statusChanges.WithLabelValues("rejected"))
	RecordStatusChange("rejected")
	assert.Equal(t, before+1, testutil.ToFloat64(statusChanges.WithLabelValues("rejected")))
}

func TestObserveHTTPAndHandler(t *testing.T) {
	done := TrackInFlight()
	assert.Equal(t, float64(1), testutil.ToFloat64(httpInFlight))
	done()

	ObserveHTTP("get", "/api/admin/applications/:id", http.StatusOK, 12*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/admin/applications/:id", "200")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idportal_http_requests_total")
}
