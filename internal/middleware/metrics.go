package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// Metrics holds the process-wide counters served by /metrics.
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	ClientErrors       uint64
	ServerErrors       uint64
	Unauthorized       uint64
	RateLimited        uint64
	LatencyMicros      uint64

	AnalysesTotal      uint64
	AnalysisFallbacks  uint64
	StoreWriteFailures uint64

	StartTime time.Time

	mu       sync.Mutex
	byRoute  map[string]uint64
	byEngine map[string]uint64
	byOp     map[string]uint64
}

var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
		byRoute:   map[string]uint64{},
		byEngine:  map[string]uint64{},
		byOp:      map[string]uint64{},
	}
}

func (m *Metrics) bump(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func (m *Metrics) snapshot(counts map[string]uint64) map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func (m *Metrics) observe(route string, status int, elapsed time.Duration) {
	atomic.AddUint64(&m.LatencyMicros, uint64(elapsed.Microseconds()))
	switch {
	case status == http.StatusUnauthorized:
		atomic.AddUint64(&m.Unauthorized, 1)
		atomic.AddUint64(&m.ClientErrors, 1)
	case status == http.StatusTooManyRequests:
		atomic.AddUint64(&m.RateLimited, 1)
		atomic.AddUint64(&m.ClientErrors, 1)
	case status >= 500:
		atomic.AddUint64(&m.ServerErrors, 1)
	case status >= 400:
		atomic.AddUint64(&m.ClientErrors, 1)
	}
	if route != "" {
		m.bump(m.byRoute, route)
	}
}

// AnalysisRecorder feeds analysis counters into the global metrics.
type AnalysisRecorder struct{}

func (AnalysisRecorder) AnalysisDone(engine string) {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
	globalMetrics.bump(globalMetrics.byEngine, engine)
}

func (AnalysisRecorder) AnalysisFallback() {
	atomic.AddUint64(&globalMetrics.AnalysisFallbacks, 1)
}

func (AnalysisRecorder) StoreWriteFailed(op string) {
	atomic.AddUint64(&globalMetrics.StoreWriteFailures, 1)
	globalMetrics.bump(globalMetrics.byOp, op)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	g := globalMetrics
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	total := atomic.LoadUint64(&g.RequestsTotal)
	avgMs := 0.0
	if total > 0 {
		avgMs = float64(atomic.LoadUint64(&g.LatencyMicros)) / float64(total) / 1000
	}

	return map[string]interface{}{
		"requests_total":       total,
		"requests_in_progress": atomic.LoadUint64(&g.RequestsInProgress),
		"requests_by_route":    g.snapshot(g.byRoute),
		"client_errors":        atomic.LoadUint64(&g.ClientErrors),
		"server_errors":        atomic.LoadUint64(&g.ServerErrors),
		"unauthorized":         atomic.LoadUint64(&g.Unauthorized),
		"rate_limited":         atomic.LoadUint64(&g.RateLimited),
		"avg_latency_ms":       avgMs,
		"analyses_total":       atomic.LoadUint64(&g.AnalysesTotal),
		"analyses_by_engine":   g.snapshot(g.byEngine),
		"analysis_fallbacks":   atomic.LoadUint64(&g.AnalysisFallbacks),
		"store_write_failures": atomic.LoadUint64(&g.StoreWriteFailures),
		"store_failures_by_op": g.snapshot(g.byOp),
		"uptime_seconds":       time.Since(g.StartTime).Seconds(),
		"heap_alloc_bytes":     mem.HeapAlloc,
		"goroutines":           runtime.NumGoroutine(),
	}
}

// MetricsMiddleware counts requests by chi route pattern and status class.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// the pattern is only complete once routing has finished
		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = r.Method + " " + rc.RoutePattern()
		}
		globalMetrics.observe(route, wrapped.statusCode, time.Since(start))
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}
