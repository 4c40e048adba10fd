package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	rrfK = 60

	// Candidate lists for in-process fusion are over-fetched so the
	// fused ranking has enough overlap to be meaningful.
	fusionCandidateMultiplier = 2
)

// DefaultSemanticWeight is the hybrid weight given to vector similarity;
// full-text rank receives the remainder.
const DefaultSemanticWeight = 0.7

// SearchEngine routes queries to semantic, full-text or hybrid
// retrieval. Retrieval failures are logged and surface as empty result
// sets, never as errors.
type SearchEngine struct {
	repo           SearchRepositoryInterface
	embeddings     EmbeddingProvider
	semanticWeight float64
}

// NewSearchEngine creates a SearchEngine. The embedding provider may be
// nil, in which case semantic and hybrid queries degrade to full-text.
func NewSearchEngine(repo SearchRepositoryInterface, embeddings EmbeddingProvider, semanticWeight float64) *SearchEngine {
	if semanticWeight <= 0 || semanticWeight > 1 {
		semanticWeight = DefaultSemanticWeight
	}
	return &SearchEngine{
		repo:           repo,
		embeddings:     embeddings,
		semanticWeight: semanticWeight,
	}
}

// Search dispatches to the named search type.
func (s *SearchEngine) Search(ctx context.Context, query string, searchType domain.SearchType, opts domain.SearchOptions) []domain.SearchResult {
	switch searchType {
	case domain.SearchTypeSemantic:
		return s.Semantic(ctx, query, opts)
	case domain.SearchTypeFulltext:
		return s.Fulltext(ctx, query, opts)
	default:
		return s.Hybrid(ctx, query, opts)
	}
}

// Fulltext runs keyword search over indexed content.
func (s *SearchEngine) Fulltext(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult {
	results, err := s.repo.Fulltext(ctx, query, opts)
	if err != nil {
		log.Printf("search: fulltext query failed: %v", err)
		return []domain.SearchResult{}
	}
	return results
}

// Semantic runs vector similarity search. Without an embedding provider
// the query degrades to full-text.
func (s *SearchEngine) Semantic(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult {
	embedding, ok := s.queryEmbedding(ctx, query)
	if !ok {
		return s.Fulltext(ctx, query, opts)
	}

	results, err := s.repo.Semantic(ctx, embedding, opts)
	if err != nil {
		log.Printf("search: semantic query failed: %v", err)
		return []domain.SearchResult{}
	}
	return results
}

// Hybrid fuses vector and full-text retrieval. The database-side fusion
// function is preferred; when it is missing the engine falls back to
// reciprocal rank fusion over the two candidate lists in process.
func (s *SearchEngine) Hybrid(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult {
	embedding, ok := s.queryEmbedding(ctx, query)
	if !ok {
		return s.Fulltext(ctx, query, opts)
	}

	results, err := s.repo.Hybrid(ctx, query, embedding, s.semanticWeight, opts)
	if err != nil {
		if isMissingFusionSupport(err) {
			log.Printf("search: hybrid_search unavailable, fusing in process: %v", err)
			return s.hybridFallback(ctx, query, embedding, opts)
		}
		log.Printf("search: hybrid query failed: %v", err)
		return []domain.SearchResult{}
	}
	return results
}

func (s *SearchEngine) queryEmbedding(ctx context.Context, query string) ([]float32, bool) {
	if s.embeddings == nil {
		log.Printf("search: no embedding provider configured, using full-text only")
		return nil, false
	}
	embedding, err := s.embeddings.GetEmbedding(ctx, query)
	if err != nil {
		log.Printf("search: query embedding failed, using full-text only: %v", err)
		return nil, false
	}
	return embedding, true
}

func (s *SearchEngine) hybridFallback(ctx context.Context, query string, embedding []float32, opts domain.SearchOptions) []domain.SearchResult {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	candidateOpts := opts
	candidateOpts.Limit = limit * fusionCandidateMultiplier

	semantic, err := s.repo.Semantic(ctx, embedding, candidateOpts)
	if err != nil {
		log.Printf("search: semantic candidates failed: %v", err)
		return []domain.SearchResult{}
	}
	lexical, err := s.repo.Fulltext(ctx, query, candidateOpts)
	if err != nil {
		log.Printf("search: fulltext candidates failed: %v", err)
		return []domain.SearchResult{}
	}

	return fuseRRF(semantic, lexical, s.semanticWeight, limit)
}

// fuseRRF merges two ranked candidate lists by weighted reciprocal rank
// fusion, keyed by content ID.
func fuseRRF(semantic, lexical []domain.SearchResult, semanticWeight float64, limit int) []domain.SearchResult {
	type fusionCandidate struct {
		result   domain.SearchResult
		rrfScore float64
	}

	candidates := make(map[string]*fusionCandidate)
	order := make([]string, 0, len(semantic)+len(lexical))

	addList := func(list []domain.SearchResult, weight float64) {
		for i, r := range list {
			cand, ok := candidates[r.ContentID]
			if !ok {
				cand = &fusionCandidate{result: r}
				candidates[r.ContentID] = cand
				order = append(order, r.ContentID)
			}
			cand.rrfScore += weight / float64(rrfK+i)
		}
	}

	addList(semantic, semanticWeight)
	addList(lexical, 1-semanticWeight)

	out := make([]domain.SearchResult, 0, len(candidates))
	for _, contentID := range order {
		cand := candidates[contentID]
		cand.result.Score = cand.rrfScore
		out = append(out, cand.result)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// isMissingFusionSupport reports whether the error means the database
// lacks the hybrid_search function or its prerequisites, as opposed to
// an ordinary query failure.
func isMissingFusionSupport(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42883", "42P01", "0A000":
		return true
	default:
		return false
	}
}
