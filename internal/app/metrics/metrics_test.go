package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(transitions.WithLabelValues("demande", "acceptee"))
	RecordTransition("demande", "acceptee")
	RecordTransition("demande", "acceptee")
	assert.Equal(t, before+2, testutil.ToFloat64(transitions.WithLabelValues("demande", "acceptee")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordHTTPRequest("GET", "/ping", "200", 0.01)
	RecordUpload(42)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `asdm_http_requests_total{method="GET",path="/ping",status="200"}`))
	assert.True(t, strings.Contains(body, "asdm_documents_uploaded_bytes_total"))
}
