package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/abekov/todo-api/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Account metrics

	UsersRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "users_registered_total",
		Help:      "Total user registrations.",
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "logins_total",
		Help:      "Total login attempts, by outcome.",
	}, []string{"outcome"})

	SessionsPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "sessions_pruned_total",
		Help:      "Expired session tokens removed by housekeeping.",
	})

	// Todo metrics

	TodosCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "todos_created_total",
		Help:      "Total todos created.",
	})

	TodosCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "todos_completed_total",
		Help:      "Total times a todo was marked completed.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "todoapi",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todoapi",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		UsersRegisteredTotal,
		LoginsTotal,
		SessionsPrunedTotal,
		TodosCreatedTotal,
		TodosCompletedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves the operational endpoints on a separate port, away from
// the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.Result) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
