package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ancodefactory/postpilot/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tick metrics

	TickFiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "tick_fired_total",
		Help:      "Total schedules fired by the tick loop.",
	}, []string{"kind"})

	TickCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postpilot",
		Name:      "tick_cycle_duration_seconds",
		Help:      "Time taken for one tick cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Worker metrics

	JobPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postpilot",
		Name:      "job_pickup_latency_seconds",
		Help:      "Time from a job's planned_at to a worker starting it.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	PublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "postpilot",
		Name:      "publish_duration_seconds",
		Help:      "Duration of a publish attempt against the platform adapter.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})

	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "postpilot",
		Name:      "worker_jobs_in_flight",
		Help:      "Number of jobs currently being published.",
	})

	JobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "jobs_completed_total",
		Help:      "Total jobs finished, by outcome.",
	}, []string{"outcome"})

	// Sweeper metrics

	SweeperRescuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "sweeper_rescued_total",
		Help:      "Total jobs recovered by the sweeper, by scan and action.",
	}, []string{"scan", "action"})

	SweeperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postpilot",
		Name:      "sweeper_cycle_duration_seconds",
		Help:      "Time taken for one sweeper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Content safety

	ContentSafetyRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "content_safety_rejected_total",
		Help:      "Variant selections rejected by the content-safety check, by reason.",
	}, []string{"reason"})

	// Worker lifecycle

	WorkerStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "postpilot",
		Name:      "worker_start_time_seconds",
		Help:      "Unix timestamp when the worker started.",
	})

	WorkerShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "worker_shutdowns_total",
		Help:      "Number of times the worker has shut down.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "postpilot",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postpilot",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TickFiredTotal,
		TickCycleDuration,
		JobPickupLatency,
		PublishDuration,
		JobsInFlight,
		JobsCompletedTotal,
		SweeperRescuedTotal,
		SweeperCycleDuration,
		ContentSafetyRejectedTotal,
		WorkerStartTime,
		WorkerShutdownsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus /healthz (liveness) and /readyz
// (dependency readiness) off the same port, since nothing external ever
// needs them split across two listeners.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		writeHealth(w, result)
	})

	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
