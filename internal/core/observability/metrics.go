package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var backendLabel atomic.Value

func init() {
	backendLabel.Store("unknown")
	prometheus.MustRegister(collectors()...)
}

// SetBackend labels solver metrics with the locator backend chosen at startup.
func SetBackend(s string) {
	if s == "" {
		s = "unknown"
	}
	backendLabel.Store(s)
}

func getBackend() string {
	if v := backendLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status", "backend"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status", "backend"},
	)

	solveResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solve_results_total",
			Help: "Solve outcomes (found, not_found, invalid_input, error).",
		},
		[]string{"outcome", "backend"},
	)

	solveDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solve_duration_seconds",
			Help:    "Time spent locating piece and platform in one frame.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"backend"},
	)

	templateCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_cache_results_total",
			Help: "Scaled piece template cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	templateCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "template_cache_entries",
			Help: "Number of scaled piece templates currently cached.",
		},
	)

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_store_op_total",
			Help: "Result store operations by op and result.",
		},
		[]string{"op", "result"},
	)

	storeOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "result_store_op_duration_seconds",
			Help:    "Latency of result store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	storeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_store_results_total",
			Help: "Result store lookups by outcome.",
		},
		[]string{"outcome"},
	)

	solveEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solve_events_dropped_total",
			Help: "Solve events dropped because the publish queue was full.",
		},
	)

	debugImages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debug_images_total",
			Help: "Debug image persistence attempts by result.",
		},
		[]string{"result"},
	)

)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		solveResults,
		solveDurationSeconds,
		templateCacheResults,
		templateCacheEntries,
		storeOps,
		storeOpDurationSeconds,
		storeResults,
		solveEventsDropped,
		debugImages,
	}
}

// Init also exposes the service collectors on reg; they stay on the default
// registry as well. Registering twice on the same registry is a no-op.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	b := getBackend()
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st, b).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st, b).Observe(durationSeconds)
}

func ObserveSolve(outcome string, durationSeconds float64) {
	b := getBackend()
	solveResults.WithLabelValues(outcome, b).Inc()
	if durationSeconds >= 0 {
		solveDurationSeconds.WithLabelValues(b).Observe(durationSeconds)
	}
}

func IncTemplateCacheHit()  { templateCacheResults.WithLabelValues("hit").Inc() }
func IncTemplateCacheMiss() { templateCacheResults.WithLabelValues("miss").Inc() }

func SetTemplateCacheEntries(n int) { templateCacheEntries.Set(float64(n)) }

func ObserveStoreOp(op string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	storeOps.WithLabelValues(op, res).Inc()
	storeOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncStoreHit()  { storeResults.WithLabelValues("hit").Inc() }
func IncStoreMiss() { storeResults.WithLabelValues("miss").Inc() }

func IncSolveEventDropped() { solveEventsDropped.Inc() }

func IncDebugImage(result string) { debugImages.WithLabelValues(result).Inc() }
