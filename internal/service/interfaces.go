package service

import (
	"context"

	"github.com/aech-ai/mcp-teams/internal/domain"
)

// EmbeddingProvider defines the interface for generating embeddings
type EmbeddingProvider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ContentRepositoryInterface defines the repository interface for indexed content
type ContentRepositoryInterface interface {
	Upsert(ctx context.Context, c *domain.IndexedContent) error
	UpsertSourceMetadata(ctx context.Context, m *domain.SourceMetadata) error
	GetByID(ctx context.Context, contentID string) (*domain.IndexedContent, error)
	Count(ctx context.Context, sourceType, sourceID string) (int64, error)
	DeleteByID(ctx context.Context, contentID string) error
	DeleteBySource(ctx context.Context, sourceType, sourceID string) (int64, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.IndexedContent, error)
	UpdateEmbedding(ctx context.Context, contentID string, embedding []float32) error
}

// SearchRepositoryInterface defines the repository interface for retrieval
type SearchRepositoryInterface interface {
	Semantic(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)
	Fulltext(ctx context.Context, queryText string, opts domain.SearchOptions) ([]domain.SearchResult, error)
	Hybrid(ctx context.Context, queryText string, embedding []float32, semanticWeight float64, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// TxRepositories exposes repositories bound to one transaction.
type TxRepositories interface {
	Content() ContentRepositoryInterface
}

// TxRunnerInterface runs a function inside a database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
