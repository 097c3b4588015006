package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/subjects/{subjectID}/isolation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/subjects/abc/isolation", nil))

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/subjects/{subjectID}/isolation", "4xx"))
	assert.Equal(t, 1.0, got)
}

func TestSetSubjectsTracked(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetSubjectsTracked(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SubjectsTracked))
}

func TestMiddlewareKeepsFlusher(t *testing.T) {
	m := New(prometheus.NewRegistry())
	rr := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if assert.True(t, ok) {
			flusher.Flush()
		}
		assert.NoError(t, http.NewResponseController(w).Flush())
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, rr.Flushed)
}
