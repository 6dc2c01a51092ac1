package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/idempotency"
	"github.com/sungwon/email-dispatch/internal/storage"
)

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
// The cache parameter is optional; when nil, idempotency replay is disabled.
func NewRouter(sender TemplateSender, db *storage.DB, cache *idempotency.Cache, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/send", SendHandler(sender, cache))
		r.Post("/send/batch", BatchSendHandler(sender, cache))
	})

	return r
}
