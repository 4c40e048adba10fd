package repository

import (
	"context"
	"strconv"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SearchRepository implements vector, full-text and hybrid retrieval
// over indexed content.
type SearchRepository struct {
	pool *pgxpool.Pool
}

func NewSearchRepository(pool *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{pool: pool}
}

// Semantic returns the closest items by cosine similarity.
func (r *SearchRepository) Semantic(ctx context.Context, embedding []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT content_id, content, source_type, metadata,
		       1 - (embedding <=> $1) AS score
		FROM indexed_content
		WHERE embedding IS NOT NULL`
	args := []interface{}{pgvector.NewVector(embedding)}

	query, args = appendFilters(query, args, "", opts)

	args = append(args, limit)
	query += `
		ORDER BY embedding <=> $1
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// Fulltext returns items matching the query by Postgres full-text
// search, ranked by ts_rank.
func (r *SearchRepository) Fulltext(ctx context.Context, queryText string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT content_id, content, source_type, metadata,
		       ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS score
		FROM indexed_content
		WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)`
	args := []interface{}{queryText}

	query, args = appendFilters(query, args, "", opts)

	args = append(args, limit)
	query += `
		ORDER BY score DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// Hybrid runs the database-side hybrid_search function, which fuses
// semantic and full-text candidates with a semantic weight. Filters are
// applied over the function's result set.
func (r *SearchRepository) Hybrid(ctx context.Context, queryText string, embedding []float32, semanticWeight float64, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	matchCount := limit
	if opts.SourceType != "" || len(opts.Filters) > 0 {
		// Filtering happens after fusion, so over-fetch to keep the
		// final result set full.
		matchCount = limit * 2
	}

	query := `
		SELECT h.content_id, h.content, h.source_type, h.metadata, h.score
		FROM hybrid_search($1, $2, $3, $4) h
		WHERE TRUE`
	args := []interface{}{queryText, pgvector.NewVector(embedding), matchCount, semanticWeight}

	query, args = appendFilters(query, args, "h.", opts)

	args = append(args, limit)
	query += `
		ORDER BY h.score DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// appendFilters adds source type and metadata equality predicates to a
// query that already has a WHERE clause.
func appendFilters(query string, args []interface{}, prefix string, opts domain.SearchOptions) (string, []interface{}) {
	if opts.SourceType != "" {
		args = append(args, opts.SourceType)
		query += ` AND ` + prefix + `source_type = $` + strconv.Itoa(len(args))
	}
	for key, value := range opts.Filters {
		args = append(args, key, value)
		query += ` AND ` + prefix + `metadata->>$` + strconv.Itoa(len(args)-1) + ` = $` + strconv.Itoa(len(args))
	}
	return query, args
}

func scanSearchRows(rows pgx.Rows) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0)
	for rows.Next() {
		var result domain.SearchResult
		if err := rows.Scan(&result.ContentID, &result.Content, &result.SourceType, &result.Metadata, &result.Score); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
