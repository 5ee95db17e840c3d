package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecordsAndExposes(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/landing", http.StatusOK, 20*time.Millisecond)
	m.RecordListingLookup(listingPublic, true, time.Millisecond)
	m.RecordListingLookup(listingPublic, false, time.Millisecond)
	m.RecordStateEvent("draft", "set_title", nil)
	m.RecordStateEvent("draft", "made_up", errors.New("unknown event"))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `ingenia_http_requests_total{method="GET",route="/api/v1/landing",status="200"} 1`)
	assert.Contains(t, body, `ingenia_listing_cache_lookups_total{category="public",result="hit"} 1`)
	assert.Contains(t, body, `ingenia_state_events_total{event="set_title",machine="draft",result="applied"} 1`)
	assert.Contains(t, body, `ingenia_state_events_total{event="any",machine="draft",result="rejected"} 1`)
	assert.NotContains(t, body, "made_up")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordStateEvent("progress", "next", nil)
	m.RecordMediaUpload("ok")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
