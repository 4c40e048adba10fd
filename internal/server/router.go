package server

import (
	"net/http"

	"github.com/aech-ai/mcp-teams/internal/api"
	"github.com/aech-ai/mcp-teams/internal/api/handlers"
	"github.com/aech-ai/mcp-teams/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	SearchHandler  *handlers.SearchHandler
	ContentHandler *handlers.ContentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", cfg.SearchHandler.Search)

	r.Route("/content", func(r chi.Router) {
		r.Post("/", cfg.ContentHandler.Index)
		r.Post("/bulk", cfg.ContentHandler.BulkIndex)
		r.Get("/count", cfg.ContentHandler.Count)
		r.Get("/{content_id}", cfg.ContentHandler.Get)
		r.Delete("/", cfg.ContentHandler.Delete)
	})

	return r
}
