package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ContentRepository handles persistence of indexed content and its
// source metadata.
type ContentRepository struct {
	db dbtx
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: pool}
}

func NewContentRepositoryWithTx(tx dbtx) *ContentRepository {
	return &ContentRepository{db: tx}
}

// Upsert inserts content or replaces the existing row with the same
// content_id, bumping updated_at.
func (r *ContentRepository) Upsert(ctx context.Context, c *domain.IndexedContent) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO indexed_content (content_id, source_type, content, embedding, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (content_id) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		c.ContentID, c.SourceType, c.Content, nullableVector(c.Embedding), c.Metadata, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// UpsertSourceMetadata inserts or replaces the source-native fields for
// an indexed item.
func (r *ContentRepository) UpsertSourceMetadata(ctx context.Context, m *domain.SourceMetadata) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO source_metadata (content_id, source_id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (content_id, source_id) DO UPDATE SET data = EXCLUDED.data`,
		m.ContentID, m.SourceID, m.Data,
	)
	return err
}

func (r *ContentRepository) GetByID(ctx context.Context, contentID string) (*domain.IndexedContent, error) {
	var c domain.IndexedContent
	var vec *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT content_id, source_type, content, embedding, metadata, created_at, updated_at
		 FROM indexed_content WHERE content_id = $1`,
		contentID,
	).Scan(&c.ContentID, &c.SourceType, &c.Content, &vec, &c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	if vec != nil {
		c.Embedding = vec.Slice()
	}
	return &c, nil
}

// Count returns the number of indexed items, optionally narrowed by
// source type and by source ID via source_metadata.
func (r *ContentRepository) Count(ctx context.Context, sourceType, sourceID string) (int64, error) {
	query := `SELECT COUNT(*) FROM indexed_content ic WHERE TRUE`
	args := []interface{}{}

	if sourceType != "" {
		args = append(args, sourceType)
		query += ` AND ic.source_type = $1`
	}
	if sourceID != "" {
		args = append(args, sourceID)
		query += ` AND EXISTS (
			SELECT 1 FROM source_metadata sm
			WHERE sm.content_id = ic.content_id AND sm.source_id = $` + strconv.Itoa(len(args)) + `)`
	}

	var count int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *ContentRepository) DeleteByID(ctx context.Context, contentID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM indexed_content WHERE content_id = $1`,
		contentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// DeleteBySource removes every item with the given source type,
// optionally narrowed to one source ID, and returns the number of
// deleted rows.
func (r *ContentRepository) DeleteBySource(ctx context.Context, sourceType, sourceID string) (int64, error) {
	query := `DELETE FROM indexed_content WHERE source_type = $1`
	args := []interface{}{sourceType}

	if sourceID != "" {
		args = append(args, sourceID)
		query += ` AND EXISTS (
			SELECT 1 FROM source_metadata sm
			WHERE sm.content_id = indexed_content.content_id AND sm.source_id = $2)`
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// ListMissingEmbeddings returns items indexed without an embedding,
// oldest first.
func (r *ContentRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.IndexedContent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT content_id, source_type, content, embedding, metadata, created_at, updated_at
		 FROM indexed_content WHERE embedding IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContentRows(rows)
}

func (r *ContentRepository) UpdateEmbedding(ctx context.Context, contentID string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE indexed_content SET embedding = $1, updated_at = $2 WHERE content_id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), contentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

func scanContentRows(rows pgx.Rows) ([]*domain.IndexedContent, error) {
	var results []*domain.IndexedContent
	for rows.Next() {
		var c domain.IndexedContent
		var vec *pgvector.Vector
		if err := rows.Scan(&c.ContentID, &c.SourceType, &c.Content, &vec, &c.Metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if vec != nil {
			c.Embedding = vec.Slice()
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func nullableVector(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
