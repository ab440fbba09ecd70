package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/posts/{id}", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/posts/{id}", 200, 20*time.Millisecond)
	m.ObserveRequest("POST", "/login", 302, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/posts/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/login", "302")))

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/books", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `goblog_http_requests_total{method="GET",route="/books",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
