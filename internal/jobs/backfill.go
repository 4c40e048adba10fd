package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/aech-ai/mcp-teams/internal/service"
)

// DefaultBackfillBatchSize bounds one backfill pass.
const DefaultBackfillBatchSize = 50

// BackfillProcessor finds content indexed without an embedding and
// fills it in. Content lands without embeddings when the daemon runs
// without an API key or a provider call fails at index time.
type BackfillProcessor struct {
	content    service.ContentRepositoryInterface
	embeddings service.EmbeddingProvider
	batchSize  int
}

func NewBackfillProcessor(content service.ContentRepositoryInterface, embeddings service.EmbeddingProvider, batchSize int) *BackfillProcessor {
	if batchSize <= 0 {
		batchSize = DefaultBackfillBatchSize
	}
	return &BackfillProcessor{
		content:    content,
		embeddings: embeddings,
		batchSize:  batchSize,
	}
}

// ProcessJobs embeds one batch of missing-embedding items. Embeddings
// for the whole batch come from a single provider call.
func (p *BackfillProcessor) ProcessJobs(ctx context.Context) error {
	items, err := p.content.ListMissingEmbeddings(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list content missing embeddings: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Content
	}

	embeddings, err := p.embeddings.GetEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	var failed int
	for i, item := range items {
		if err := p.content.UpdateEmbedding(ctx, item.ContentID, embeddings[i]); err != nil {
			log.Printf("backfill: failed to store embedding for %s: %v", item.ContentID, err)
			failed++
		}
	}

	log.Printf("backfill: embedded %d items (%d failed)", len(items)-failed, failed)
	return nil
}

var _ JobProcessor = (*BackfillProcessor)(nil)
