package perf

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsEmpty(t *testing.T) {
	m := NewMonitor(8, 0)
	snap := m.Stats()
	assert.Equal(t, 0, snap.Count)
	assert.Equal(t, 0.0, snap.ErrorRate)
	assert.Empty(t, snap.ByRoute)
}

func TestStatsAggregates(t *testing.T) {
	m := NewMonitor(16, 0)
	m.Record("GET /api/content", 200, 10*time.Millisecond)
	m.Record("GET /api/content", 200, 20*time.Millisecond)
	m.Record("GET /api/content", 500, 30*time.Millisecond)
	m.Record("POST /api/bookings", 201, 40*time.Millisecond)

	snap := m.Stats()
	assert.Equal(t, 4, snap.Count)
	assert.Equal(t, 1, snap.Errors)
	assert.InDelta(t, 0.25, snap.ErrorRate, 1e-9)
	assert.InDelta(t, 25.0, snap.AvgMs, 1e-9)
	assert.InDelta(t, 20.0, snap.P50Ms, 1e-9)
	assert.InDelta(t, 40.0, snap.P95Ms, 1e-9)
	assert.InDelta(t, 40.0, snap.P99Ms, 1e-9)

	content := snap.ByRoute["GET /api/content"]
	assert.Equal(t, 3, content.Count)
	assert.Equal(t, 1, content.Errors)
	assert.InDelta(t, 20.0, content.AvgMs, 1e-9)

	bookings := snap.ByRoute["POST /api/bookings"]
	assert.Equal(t, 1, bookings.Count)
	assert.Equal(t, 0, bookings.Errors)
}

func TestRingBufferEvictsOldest(t *testing.T) {
	m := NewMonitor(3, 0)
	m.Record("a", 500, time.Millisecond)
	m.Record("b", 200, time.Millisecond)
	m.Record("c", 200, time.Millisecond)
	m.Record("d", 200, time.Millisecond) // overwrites a

	snap := m.Stats()
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, 0, snap.Errors)
	assert.NotContains(t, snap.ByRoute, "a")
	assert.Contains(t, snap.ByRoute, "d")
}

func TestPercentileNearestRank(t *testing.T) {
	durations := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(durations, 0.50))
	assert.Equal(t, time.Duration(10), percentile(durations, 0.95))
	assert.Equal(t, time.Duration(10), percentile(durations, 1.0))
	assert.Equal(t, time.Duration(1), percentile(durations, 0.0))
}

func TestMiddlewareRecordsStatusAndRoute(t *testing.T) {
	m := NewMonitor(8, 0)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/content")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/boom")
	require.NoError(t, err)
	resp.Body.Close()

	snap := m.Stats()
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, 1, snap.Errors)
	assert.Contains(t, snap.ByRoute, "GET /api/content")
	assert.Contains(t, snap.ByRoute, "GET /boom")
	assert.Equal(t, 1, snap.ByRoute["GET /boom"].Errors)
}

func TestConcurrentRecord(t *testing.T) {
	m := NewMonitor(64, 0)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				m.Record("GET /api/stats", 200, time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	snap := m.Stats()
	assert.Equal(t, 64, snap.Count)
}
