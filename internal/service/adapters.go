package service

import (
	"context"
	"sync"

	"github.com/aech-ai/mcp-teams/internal/chunker"
	"github.com/aech-ai/mcp-teams/internal/domain"
)

// SourceAdapter normalizes one content source for indexing and search.
type SourceAdapter interface {
	SourceType() string
	TransformQuery(query string) string
}

// AdapterRegistry holds the registered source adapters.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]SourceAdapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[string]SourceAdapter)}
}

func (r *AdapterRegistry) Register(adapter SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.SourceType()] = adapter
}

func (r *AdapterRegistry) Get(sourceType string) (SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[sourceType]
	return adapter, ok
}

// MessageSource yields the messages of one conversation.
type MessageSource interface {
	FetchMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// BulkIndexer is the indexing surface an adapter feeds into.
type BulkIndexer interface {
	BulkIndexContent(ctx context.Context, items []domain.BulkItem) *BulkIndexResponse
}

// TeamsAdapter indexes Microsoft Teams conversations. Messages are
// grouped into conversation chunks before indexing so retrieval hits
// carry surrounding context.
type TeamsAdapter struct {
	source  MessageSource
	indexer BulkIndexer
	chunks  *chunker.Chunker
}

// NewTeamsAdapter creates a TeamsAdapter. The message source may be
// nil when only query transformation is needed; IndexMessages then
// reports a configuration error.
func NewTeamsAdapter(source MessageSource, indexer BulkIndexer, cfg chunker.Config) *TeamsAdapter {
	return &TeamsAdapter{
		source:  source,
		indexer: indexer,
		chunks:  chunker.New(chunker.StrategyConversation, cfg),
	}
}

func (a *TeamsAdapter) SourceType() string { return "teams" }

// TransformQuery passes queries through unchanged. Teams content is
// indexed as rendered conversation text, so no query rewriting applies.
func (a *TeamsAdapter) TransformQuery(query string) string { return query }

// IndexMessages fetches a conversation, chunks it and indexes the
// chunks as one atomic batch.
func (a *TeamsAdapter) IndexMessages(ctx context.Context, conversationID string) *BulkIndexResponse {
	if a.source == nil {
		return &BulkIndexResponse{
			Error: domain.NewDomainError(domain.ErrCodeConfiguration, "no message source configured").Error(),
		}
	}
	messages, err := a.source.FetchMessages(ctx, conversationID)
	if err != nil {
		return &BulkIndexResponse{
			Error: domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "failed to fetch messages", err).Error(),
		}
	}

	chunks := a.chunks.ChunkMessages(messages)
	if len(chunks) == 0 {
		return &BulkIndexResponse{Success: true}
	}

	items := make([]domain.BulkItem, 0, len(chunks))
	for _, chunk := range chunks {
		metadata := chunk.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["conversation_id"] = conversationID
		items = append(items, domain.BulkItem{
			Content:    chunk.Content,
			SourceType: a.SourceType(),
			Metadata:   metadata,
			SourceID:   conversationID,
		})
	}

	return a.indexer.BulkIndexContent(ctx, items)
}
