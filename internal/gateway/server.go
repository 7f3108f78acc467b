package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tbellamy/membank/internal/observability"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", observability.MetricsHandler())

	// Memory API — auth required when configured. Routes are still
	// mounted without auth so a loopback-only dev setup works out of
	// the box.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth))
		}
		r.Route("/api/users/{user}", func(r chi.Router) {
			r.Post("/sessions/{session}/turns", g.handleAddTurn())
			r.Post("/sessions/{session}/extract", g.handleExtract())
			r.Get("/memories/search", g.handleSearch())
			r.Get("/memories/summary", g.handleSummary())
		})
		r.Get("/ws/events", g.handleEvents())
	})

	return r
}
