package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/aech-ai/mcp-teams/internal/telemetry"
	"github.com/google/uuid"
)

// Searcher is the retrieval surface consumed by the tools layer.
type Searcher interface {
	Search(ctx context.Context, query string, searchType domain.SearchType, opts domain.SearchOptions) []domain.SearchResult
}

// DefaultSearchLimit caps result counts when a request does not set one.
const DefaultSearchLimit = 10

// ToolsService is the operation surface exposed to transports. Every
// operation returns a response envelope; failures are reported inside
// the envelope, never as raw errors.
type ToolsService struct {
	content    ContentRepositoryInterface
	searcher   Searcher
	embeddings EmbeddingProvider
	txRunner   TxRunnerInterface
	adapters   *AdapterRegistry
}

// NewToolsService creates a ToolsService. The embedding provider may be
// nil, in which case content is indexed without embeddings and picked
// up later by the backfill worker.
func NewToolsService(content ContentRepositoryInterface, searcher Searcher, embeddings EmbeddingProvider, txRunner TxRunnerInterface) *ToolsService {
	return &ToolsService{
		content:    content,
		searcher:   searcher,
		embeddings: embeddings,
		txRunner:   txRunner,
		adapters:   NewAdapterRegistry(),
	}
}

// RegisterAdapter registers a source adapter whose query transform is
// applied to searches scoped to its source type.
func (s *ToolsService) RegisterAdapter(adapter SourceAdapter) {
	s.adapters.Register(adapter)
}

// SearchRequest describes one search invocation.
type SearchRequest struct {
	Query      string            `json:"query"`
	SearchType string            `json:"search_type,omitempty"`
	SourceType string            `json:"source_type,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Offset     int               `json:"offset,omitempty"`
}

// SearchResultItem is one scored hit in a search response.
type SearchResultItem struct {
	ContentID  string         `json:"content_id"`
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Score      float64        `json:"score"`
}

// SearchResponse is the search envelope.
type SearchResponse struct {
	Query        string             `json:"query"`
	SearchType   string             `json:"search_type"`
	TotalResults int                `json:"total_results"`
	Offset       int                `json:"offset"`
	Limit        int                `json:"limit"`
	Results      []SearchResultItem `json:"results"`
	Error        string             `json:"error,omitempty"`
}

// Search runs a query and returns a paginated envelope.
func (s *ToolsService) Search(ctx context.Context, req SearchRequest) *SearchResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.Search", telemetry.SpanAttributes{
		SourceType: req.SourceType,
		Operation:  "search",
	})
	defer span.End()

	searchType, known := domain.ParseSearchType(req.SearchType)
	if !known {
		log.Printf("tools: unknown search type %q, using fulltext", req.SearchType)
	}

	resp := &SearchResponse{
		Query:      req.Query,
		SearchType: string(searchType),
		Offset:     req.Offset,
		Limit:      req.Limit,
		Results:    []SearchResultItem{},
	}

	if strings.TrimSpace(req.Query) == "" {
		resp.Error = "query cannot be empty"
		return resp
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
		resp.Limit = limit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
		resp.Offset = 0
	}

	query := req.Query
	if req.SourceType != "" {
		if adapter, ok := s.adapters.Get(req.SourceType); ok {
			query = adapter.TransformQuery(query)
		}
	}

	opts := domain.SearchOptions{
		SourceType: req.SourceType,
		Filters:    req.Filters,
		Limit:      offset + limit,
	}

	results := s.searcher.Search(ctx, query, searchType, opts)
	resp.TotalResults = len(results)

	if offset >= len(results) {
		return resp
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	for _, r := range results[offset:end] {
		resp.Results = append(resp.Results, SearchResultItem{
			ContentID:  r.ContentID,
			Content:    r.Content,
			SourceType: r.SourceType,
			Metadata:   r.Metadata,
			Score:      r.Score,
		})
	}
	return resp
}

// IndexContentRequest describes one item to index.
type IndexContentRequest struct {
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ContentID  string         `json:"content_id,omitempty"`
	SourceID   string         `json:"source_id,omitempty"`
	SourceData map[string]any `json:"source_data,omitempty"`
}

// IndexContentResponse is the indexing envelope.
type IndexContentResponse struct {
	Success   bool   `json:"success"`
	ContentID string `json:"content_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// IndexContent validates, embeds and stores a single item. When no
// embedding provider is configured the item is stored without an
// embedding for the backfill worker to complete; a configured provider
// failing fails the request.
func (s *ToolsService) IndexContent(ctx context.Context, req IndexContentRequest) *IndexContentResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.IndexContent", telemetry.SpanAttributes{
		SourceType: req.SourceType,
		ContentID:  req.ContentID,
		Operation:  "index_content",
	})
	defer span.End()

	item := &domain.IndexedContent{
		ContentID:  req.ContentID,
		SourceType: req.SourceType,
		Content:    req.Content,
		Metadata:   req.Metadata,
	}
	if err := item.Validate(); err != nil {
		return &IndexContentResponse{Error: err.Error()}
	}
	if item.ContentID == "" {
		item.ContentID = uuid.NewString()
	}

	embedding, err := s.embedOne(ctx, item.Content)
	if err != nil {
		span.SetError(err)
		return &IndexContentResponse{Error: providerError("failed to generate embedding", err)}
	}
	item.Embedding = embedding

	if err := s.content.Upsert(ctx, item); err != nil {
		span.SetError(err)
		return &IndexContentResponse{Error: persistenceError("failed to index content", err)}
	}

	if req.SourceID != "" {
		meta := &domain.SourceMetadata{
			ContentID: item.ContentID,
			SourceID:  req.SourceID,
			Data:      req.SourceData,
		}
		if err := s.content.UpsertSourceMetadata(ctx, meta); err != nil {
			span.SetError(err)
			return &IndexContentResponse{Error: persistenceError("failed to store source metadata", err)}
		}
	}

	return &IndexContentResponse{Success: true, ContentID: item.ContentID}
}

// BulkIndexResponse is the bulk indexing envelope.
type BulkIndexResponse struct {
	Success      bool   `json:"success"`
	TotalItems   int    `json:"total_items"`
	IndexedCount int    `json:"indexed_count"`
	Error        string `json:"error,omitempty"`
}

// BulkIndexContent indexes a batch atomically: embeddings are generated
// in one provider call and all rows are written in one transaction, so
// either every item lands or none do.
func (s *ToolsService) BulkIndexContent(ctx context.Context, items []domain.BulkItem) *BulkIndexResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.BulkIndexContent", telemetry.SpanAttributes{
		Operation: "bulk_index_content",
	})
	defer span.End()

	resp := &BulkIndexResponse{TotalItems: len(items)}
	if len(items) == 0 {
		resp.Success = true
		return resp
	}

	contents := make([]*domain.IndexedContent, len(items))
	texts := make([]string, len(items))
	for i, item := range items {
		c := &domain.IndexedContent{
			ContentID:  item.ContentID,
			SourceType: item.SourceType,
			Content:    item.Content,
			Metadata:   item.Metadata,
		}
		if err := c.Validate(); err != nil {
			resp.Error = err.Error()
			return resp
		}
		if c.ContentID == "" {
			c.ContentID = uuid.NewString()
		}
		contents[i] = c
		texts[i] = c.Content
	}

	embeddings, err := s.embedBatch(ctx, texts)
	if err != nil {
		span.SetError(err)
		resp.Error = providerError("failed to generate embeddings", err)
		return resp
	}
	if embeddings != nil {
		for i := range contents {
			contents[i].Embedding = embeddings[i]
		}
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		repo := repos.Content()
		for i, c := range contents {
			if err := repo.Upsert(ctx, c); err != nil {
				return err
			}
			if items[i].SourceID != "" {
				meta := &domain.SourceMetadata{
					ContentID: c.ContentID,
					SourceID:  items[i].SourceID,
					Data:      items[i].SourceData,
				}
				if err := repo.UpsertSourceMetadata(ctx, meta); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		resp.Error = persistenceError("bulk indexing failed", err)
		return resp
	}

	resp.Success = true
	resp.IndexedCount = len(contents)
	return resp
}

// ContentPayload is an indexed item as returned to clients.
type ContentPayload struct {
	ContentID    string         `json:"content_id"`
	SourceType   string         `json:"source_type"`
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	HasEmbedding bool           `json:"has_embedding"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// GetContentResponse is the lookup envelope.
type GetContentResponse struct {
	Found   bool            `json:"found"`
	Content *ContentPayload `json:"content,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// GetContent looks up one item by content ID.
func (s *ToolsService) GetContent(ctx context.Context, contentID string) *GetContentResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.GetContent", telemetry.SpanAttributes{
		ContentID: contentID,
		Operation: "get_content",
	})
	defer span.End()

	item, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			return &GetContentResponse{Found: false}
		}
		span.SetError(err)
		return &GetContentResponse{Error: persistenceError("failed to fetch content", err)}
	}

	return &GetContentResponse{
		Found: true,
		Content: &ContentPayload{
			ContentID:    item.ContentID,
			SourceType:   item.SourceType,
			Content:      item.Content,
			Metadata:     item.Metadata,
			HasEmbedding: len(item.Embedding) > 0,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		},
	}
}

// ContentCountResponse is the count envelope.
type ContentCountResponse struct {
	Count      int64  `json:"count"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// GetContentCount counts indexed items, optionally narrowed by source
// type and source ID.
func (s *ToolsService) GetContentCount(ctx context.Context, sourceType, sourceID string) *ContentCountResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.GetContentCount", telemetry.SpanAttributes{
		SourceType: sourceType,
		Operation:  "get_content_count",
	})
	defer span.End()

	count, err := s.content.Count(ctx, sourceType, sourceID)
	if err != nil {
		span.SetError(err)
		return &ContentCountResponse{Error: persistenceError("failed to count content", err)}
	}
	return &ContentCountResponse{Count: count, SourceType: sourceType, SourceID: sourceID}
}

// DeleteContentResponse is the deletion envelope.
type DeleteContentResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deleted_count"`
	Error        string `json:"error,omitempty"`
}

// DeleteContent removes one item by content ID, or every item of a
// source type, optionally narrowed to one source ID. A selector is
// required; content ID wins when both are set.
func (s *ToolsService) DeleteContent(ctx context.Context, contentID, sourceType, sourceID string) *DeleteContentResponse {
	ctx, span := telemetry.StartSpan(ctx, "ToolsService.DeleteContent", telemetry.SpanAttributes{
		SourceType: sourceType,
		ContentID:  contentID,
		Operation:  "delete_content",
	})
	defer span.End()

	switch {
	case contentID != "":
		if err := s.content.DeleteByID(ctx, contentID); err != nil {
			if errors.Is(err, domain.ErrContentNotFound) {
				return &DeleteContentResponse{Error: domain.ErrContentNotFound.Error()}
			}
			span.SetError(err)
			return &DeleteContentResponse{Error: persistenceError("failed to delete content", err)}
		}
		return &DeleteContentResponse{Success: true, DeletedCount: 1}
	case sourceType != "":
		deleted, err := s.content.DeleteBySource(ctx, sourceType, sourceID)
		if err != nil {
			span.SetError(err)
			return &DeleteContentResponse{Error: persistenceError("failed to delete content", err)}
		}
		return &DeleteContentResponse{Success: true, DeletedCount: deleted}
	default:
		return &DeleteContentResponse{Error: domain.ErrMissingDeleteKey.Error()}
	}
}

// embedOne returns nil without error when no provider is configured;
// the backfill worker fills the embedding in later. A configured
// provider failing is an error the caller must surface.
func (s *ToolsService) embedOne(ctx context.Context, text string) ([]float32, error) {
	if s.embeddings == nil {
		return nil, nil
	}
	embedding, err := s.embeddings.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	return embedding, nil
}

func (s *ToolsService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embeddings == nil {
		return nil, nil
	}
	embeddings, err := s.embeddings.GetEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

func providerError(message string, err error) string {
	return domain.NewDomainErrorWithCause(domain.ErrCodeProvider, message, err).Error()
}

func persistenceError(message string, err error) string {
	return domain.NewDomainErrorWithCause(domain.ErrCodePersistence, message, err).Error()
}
