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

func TestObserveAuth(t *testing.T) {
	m := New()
	m.ObserveAuth("authenticated")
	m.ObserveAuth("authenticated")
	m.ObserveAuth("upstream_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthDecisions.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthDecisions.WithLabelValues("upstream_error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuth("rejected")
		m.ObserveCatalog("anime", "media", "create", "ok")
	})
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.ObserveCatalog("manga", "review", "update", "not_found")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "anilist_catalog_operations_total"))
}
