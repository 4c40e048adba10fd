package domain

import (
	"strings"
	"time"
)

// IndexedContent is the unit of retrieval: a piece of text with its
// embedding and open-ended metadata, addressable by a stable content ID.
type IndexedContent struct {
	ContentID  string
	SourceType string
	Content    string
	Embedding  []float32
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the fields required before indexing.
func (c *IndexedContent) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return ErrEmptyContent
	}
	if strings.TrimSpace(c.SourceType) == "" {
		return ErrMissingSourceType
	}
	return nil
}

// SourceMetadata holds source-native fields for an indexed item, keyed
// by (content_id, source_id). Rows are owned by their parent
// IndexedContent and removed with it.
type SourceMetadata struct {
	ContentID string
	SourceID  string
	Data      map[string]any
}

// BulkItem is one entry of a bulk indexing request.
type BulkItem struct {
	Content    string
	SourceType string
	Metadata   map[string]any
	ContentID  string
	SourceID   string
	SourceData map[string]any
}

// SearchResult is a scored retrieval hit.
type SearchResult struct {
	ContentID  string
	Content    string
	SourceType string
	Metadata   map[string]any
	Score      float64
}
