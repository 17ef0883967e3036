package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeOK = "ok"

// Metrics tracks HTTP traffic and pipeline outcomes.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imgenhance",
			Name:      "http_requests_total",
			Help:      "Tracks the number of HTTP requests.",
		}, []string{"route", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imgenhance",
			Name:      "http_request_duration_seconds",
			Help:      "Tracks the latencies for HTTP requests.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"route"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imgenhance",
			Name:      "pipeline_outcomes_total",
			Help:      "Tracks enhancement pipeline results by error kind, or ok.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Outcome(kind string) {
	m.outcomes.WithLabelValues(kind).Inc()
}

type routeKey struct{}

// routeName is filled in by captureRoute once the router matched a route.
type routeName struct {
	template string
}

// Middleware records request counts and latencies per route template. It runs outside the router, so the template
// is read back from what captureRoute stored.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		route := &routeName{template: "unmatched"}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeKey{}, route)))

		m.requests.WithLabelValues(route.template, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		m.duration.WithLabelValues(route.template).Observe(time.Since(start).Seconds())
	})
}

// captureRoute is router middleware and only runs for matched routes.
func captureRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route, ok := r.Context().Value(routeKey{}).(*routeName); ok {
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route.template = tpl
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}
