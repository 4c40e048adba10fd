package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aech-ai/mcp-teams/internal/api"
	"github.com/aech-ai/mcp-teams/internal/service"
)

// SearchService is the search surface consumed by the handler.
type SearchService interface {
	Search(ctx context.Context, req service.SearchRequest) *service.SearchResponse
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req service.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	resp := h.svc.Search(r.Context(), req)
	if resp.Error != "" {
		api.Error(w, http.StatusBadRequest, resp.Error)
		return
	}

	api.Success(w, http.StatusOK, resp)
}
