package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "ledgerguard/internal/authorize/handler"
	"ledgerguard/internal/platform/metrics"
	"ledgerguard/pkg/platform/middleware/metadata"
)

// newRouter mounts the API, metrics and health endpoints. m may be nil.
func newRouter(h *authhandler.Handler, m *metrics.Metrics, health http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(m.Middleware)

	h.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health)
	return r
}
