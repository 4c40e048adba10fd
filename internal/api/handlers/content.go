package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aech-ai/mcp-teams/internal/api"
	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/aech-ai/mcp-teams/internal/service"
	"github.com/go-chi/chi/v5"
)

// ContentService is the content surface consumed by the handler.
type ContentService interface {
	IndexContent(ctx context.Context, req service.IndexContentRequest) *service.IndexContentResponse
	BulkIndexContent(ctx context.Context, items []domain.BulkItem) *service.BulkIndexResponse
	GetContent(ctx context.Context, contentID string) *service.GetContentResponse
	GetContentCount(ctx context.Context, sourceType, sourceID string) *service.ContentCountResponse
	DeleteContent(ctx context.Context, contentID, sourceType, sourceID string) *service.DeleteContentResponse
}

type ContentHandler struct {
	svc ContentService
}

func NewContentHandler(svc ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// BulkItemRequest is one entry of a bulk indexing request body.
type BulkItemRequest struct {
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ContentID  string         `json:"content_id,omitempty"`
	SourceID   string         `json:"source_id,omitempty"`
	SourceData map[string]any `json:"source_data,omitempty"`
}

type BulkIndexRequest struct {
	Items []BulkItemRequest `json:"items"`
}

// Index handles POST /content.
func (h *ContentHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req service.IndexContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := h.svc.IndexContent(r.Context(), req)
	if resp.Error != "" {
		api.Error(w, statusForEnvelopeError(resp.Error), resp.Error)
		return
	}

	api.Success(w, http.StatusCreated, resp)
}

// BulkIndex handles POST /content/bulk.
func (h *ContentHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]domain.BulkItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.BulkItem{
			Content:    item.Content,
			SourceType: item.SourceType,
			Metadata:   item.Metadata,
			ContentID:  item.ContentID,
			SourceID:   item.SourceID,
			SourceData: item.SourceData,
		}
	}

	resp := h.svc.BulkIndexContent(r.Context(), items)
	if resp.Error != "" {
		api.Error(w, statusForEnvelopeError(resp.Error), resp.Error)
		return
	}

	api.Success(w, http.StatusCreated, resp)
}

// Get handles GET /content/{content_id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")
	if contentID == "" {
		api.Error(w, http.StatusBadRequest, "content_id is required")
		return
	}

	resp := h.svc.GetContent(r.Context(), contentID)
	if resp.Error != "" {
		api.Error(w, statusForEnvelopeError(resp.Error), resp.Error)
		return
	}
	if !resp.Found {
		api.Error(w, http.StatusNotFound, domain.ErrContentNotFound.Message)
		return
	}

	api.Success(w, http.StatusOK, resp.Content)
}

// Count handles GET /content/count.
func (h *ContentHandler) Count(w http.ResponseWriter, r *http.Request) {
	sourceType := r.URL.Query().Get("source_type")
	sourceID := r.URL.Query().Get("source_id")

	resp := h.svc.GetContentCount(r.Context(), sourceType, sourceID)
	if resp.Error != "" {
		api.Error(w, statusForEnvelopeError(resp.Error), resp.Error)
		return
	}

	api.Success(w, http.StatusOK, resp)
}

// Delete handles DELETE /content.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contentID := r.URL.Query().Get("content_id")
	sourceType := r.URL.Query().Get("source_type")
	sourceID := r.URL.Query().Get("source_id")

	resp := h.svc.DeleteContent(r.Context(), contentID, sourceType, sourceID)
	if resp.Error != "" {
		api.Error(w, statusForEnvelopeError(resp.Error), resp.Error)
		return
	}

	api.Success(w, http.StatusOK, resp)
}

// statusForEnvelopeError maps envelope error strings back to HTTP
// status codes using the domain error code prefix.
func statusForEnvelopeError(message string) int {
	switch {
	case strings.HasPrefix(message, "["+domain.ErrCodeValidation+"]"):
		return http.StatusBadRequest
	case strings.HasPrefix(message, "["+domain.ErrCodeNotFound+"]"):
		return http.StatusNotFound
	case strings.HasPrefix(message, "["+domain.ErrCodeConfiguration+"]"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(message, "["+domain.ErrCodeProvider+"]"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
