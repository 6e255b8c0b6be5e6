package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the diagnostics router.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)
	router.Use(middleware.Compress(5, "application/json"))

	router.Group(func(r chi.Router) {
		r.Get("/api/version", h.getVersion)
		r.Get("/api/accounts", h.listAccounts)
		r.Get("/api/accounts/{accountID}", h.getAccount)
		r.Get("/api/dispatcher", h.getDispatcherStats)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
