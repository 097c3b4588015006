package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-level Prometheus metrics.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	SubjectsTracked prometheus.Gauge
}

// New creates and registers process metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isolationd_http_requests_total",
			Help: "Total number of HTTP requests by route and status class",
		}, []string{"route", "status"}),
		SubjectsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isolationd_subjects_tracked",
			Help: "Number of subjects with a loaded isolation context",
		}),
	}
}

// SetSubjectsTracked records how many subject contexts are loaded.
func (m *Metrics) SetSubjectsTracked(count int) {
	m.SubjectsTracked.Set(float64(count))
}

// Handler exposes the given gatherer on /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware counts requests by chi route pattern and status class.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.status/100)+"xx").Inc()
	})
}
