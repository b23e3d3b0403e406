package server

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/earth2-mcp/gateway/dispatch"
	"github.com/earth2-mcp/gateway/handlers"
)

func SetupRoutes(d *dispatch.Dispatcher, wsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/rpc", handlers.RPC(d))
	r.Method(http.MethodGet, "/ws", wsHandler)
	r.Get("/healthz", handlers.Healthz())

	return r
}
