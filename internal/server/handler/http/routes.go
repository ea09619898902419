package http

import (
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the fact API.
//
// Routes:
//
//	GET  /                    → factHandler.Index
//	GET  /{animal}/fact       → factHandler.RandomFact
//	GET  /metrics             → metrics
//	POST /flag                → factHandler.SubmitFlag          (flagging only)
//	POST /admin/fact/{action} → adminHandler.Facts
//	POST /admin/flag/{action} → adminHandler.Flags              (flagging only)
//
// Every request gets a request id, panic recovery and request logging.
// POST routes only accept application/json bodies.
func NewRouter(
	factHandler *FactHandler,
	adminHandler *AdminHandler,
	flaggingEnabled bool,
	metrics http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", factHandler.Index)
	r.Get("/{animal}/fact", factHandler.RandomFact)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireEnabled(flaggingEnabled))
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/flag", factHandler.SubmitFlag)
		r.Route("/admin/flag", func(r chi.Router) {
			r.Post("/list", adminHandler.Flags)
			r.Post("/add", adminHandler.Flags)
			r.Post("/delete", adminHandler.Flags)
		})
	})

	r.Route("/admin/fact", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/list", adminHandler.Facts)
		r.Post("/add", adminHandler.Facts)
		r.Post("/delete", adminHandler.Facts)
	})

	return r
}
