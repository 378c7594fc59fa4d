// Package perf implements the in-memory API performance monitor: a bounded
// ring buffer of request samples with aggregate statistics. Nothing is
// persisted; the buffer resets with the process.
package perf

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"cuepoint/internal/logging"
)

// Sample is one recorded request.
type Sample struct {
	Route    string        `json:"route"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// RouteStats aggregates samples for one route.
type RouteStats struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	AvgMs  float64 `json:"avgMs"`
	P95Ms  float64 `json:"p95Ms"`
}

// Snapshot is the aggregate view served at /api/stats.
type Snapshot struct {
	WindowSize int                   `json:"windowSize"`
	Count      int                   `json:"count"`
	Errors     int                   `json:"errors"`
	ErrorRate  float64               `json:"errorRate"`
	AvgMs      float64               `json:"avgMs"`
	P50Ms      float64               `json:"p50Ms"`
	P95Ms      float64               `json:"p95Ms"`
	P99Ms      float64               `json:"p99Ms"`
	ByRoute    map[string]RouteStats `json:"byRoute"`
}

// Monitor records request samples into a fixed-size ring buffer.
type Monitor struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	filled  bool

	slowThreshold time.Duration
}

// NewMonitor creates a monitor holding at most size samples.
func NewMonitor(size int, slowThreshold time.Duration) *Monitor {
	if size <= 0 {
		size = 1024
	}
	return &Monitor{
		samples:       make([]Sample, size),
		slowThreshold: slowThreshold,
	}
}

// Record stores one sample, overwriting the oldest once the buffer is full.
func (m *Monitor) Record(route string, status int, duration time.Duration) {
	m.mu.Lock()
	m.samples[m.next] = Sample{Route: route, Status: status, Duration: duration, At: time.Now()}
	m.next++
	if m.next == len(m.samples) {
		m.next = 0
		m.filled = true
	}
	m.mu.Unlock()

	if m.slowThreshold > 0 && duration > m.slowThreshold {
		logging.Get(logging.CategoryPerf).Warn("slow request: %s took %v (threshold %v)",
			route, duration, m.slowThreshold)
	}
}

// Stats computes the aggregate snapshot over the current window.
func (m *Monitor) Stats() Snapshot {
	m.mu.Lock()
	window := m.window()
	m.mu.Unlock()

	snap := Snapshot{
		WindowSize: len(m.samples),
		Count:      len(window),
		ByRoute:    make(map[string]RouteStats),
	}
	if len(window) == 0 {
		return snap
	}

	durations := make([]time.Duration, 0, len(window))
	byRoute := make(map[string][]time.Duration)
	var total time.Duration
	for _, s := range window {
		durations = append(durations, s.Duration)
		byRoute[s.Route] = append(byRoute[s.Route], s.Duration)
		total += s.Duration
		if s.Status >= 400 {
			snap.Errors++
			rs := snap.ByRoute[s.Route]
			rs.Errors++
			snap.ByRoute[s.Route] = rs
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	snap.ErrorRate = float64(snap.Errors) / float64(len(window))
	snap.AvgMs = toMs(total) / float64(len(window))
	snap.P50Ms = toMs(percentile(durations, 0.50))
	snap.P95Ms = toMs(percentile(durations, 0.95))
	snap.P99Ms = toMs(percentile(durations, 0.99))

	for route, ds := range byRoute {
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		var sum time.Duration
		for _, d := range ds {
			sum += d
		}
		rs := snap.ByRoute[route]
		rs.Count = len(ds)
		rs.AvgMs = toMs(sum) / float64(len(ds))
		rs.P95Ms = toMs(percentile(ds, 0.95))
		snap.ByRoute[route] = rs
	}

	return snap
}

// window returns the valid samples in insertion order. Caller holds the lock.
func (m *Monitor) window() []Sample {
	if !m.filled {
		return append([]Sample(nil), m.samples[:m.next]...)
	}
	out := make([]Sample, 0, len(m.samples))
	out = append(out, m.samples[m.next:]...)
	out = append(out, m.samples[:m.next]...)
	return out
}

// percentile returns the nearest-rank percentile of sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(float64(len(sorted))*p+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func toMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// statusRecorder captures the response status for the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware wraps an http.Handler and records every request.
func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.Record(r.Method+" "+r.URL.Path, rec.status, time.Since(start))
	})
}
