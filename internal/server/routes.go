package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/askql/internal/observe"
)

// SetupRoutes registers the API routes and their CORS preflights.
func SetupRoutes(router chi.Router, h *Handlers, metrics *observe.Metrics, origin string) {
	endpoints := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodPost, "/ask", h.Ask},
		{http.MethodPost, "/csv/ask", h.DatasetAsk},
		{http.MethodPost, "/upload", h.Upload},
		{http.MethodGet, "/schema", h.Schema},
		{http.MethodGet, "/datasets", h.Datasets},
	}

	for _, e := range endpoints {
		router.Method(e.method, e.path, e.handler)
		router.Options(e.path, preflight(origin, e.method))
	}

	router.Get("/healthz", h.Health)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
}
