package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aech-ai/mcp-teams/internal/chunker"
	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessageSource struct {
	messages []domain.Message
	err      error
}

func (s *stubMessageSource) FetchMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return s.messages, s.err
}

type capturingIndexer struct {
	items []domain.BulkItem
	resp  *BulkIndexResponse
}

func (c *capturingIndexer) BulkIndexContent(ctx context.Context, items []domain.BulkItem) *BulkIndexResponse {
	c.items = items
	if c.resp != nil {
		return c.resp
	}
	return &BulkIndexResponse{Success: true, TotalItems: len(items), IndexedCount: len(items)}
}

func TestAdapterRegistry(t *testing.T) {
	registry := NewAdapterRegistry()
	adapter := NewTeamsAdapter(&stubMessageSource{}, &capturingIndexer{}, chunker.DefaultConfig())

	registry.Register(adapter)

	got, ok := registry.Get("teams")
	require.True(t, ok)
	assert.Equal(t, "teams", got.SourceType())

	_, ok = registry.Get("email")
	assert.False(t, ok)
}

func TestTeamsAdapter_TransformQueryIsIdentity(t *testing.T) {
	adapter := NewTeamsAdapter(&stubMessageSource{}, &capturingIndexer{}, chunker.DefaultConfig())

	assert.Equal(t, "standup notes", adapter.TransformQuery("standup notes"))
}

func TestTeamsAdapter_IndexMessages_ChunksAndIndexes(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	source := &stubMessageSource{messages: []domain.Message{
		{Content: "morning", Sender: "Alice", Timestamp: base},
		{Content: "standup in five", Sender: "Bob", Timestamp: base.Add(time.Minute)},
	}}
	indexer := &capturingIndexer{}

	adapter := NewTeamsAdapter(source, indexer, chunker.DefaultConfig())
	resp := adapter.IndexMessages(context.Background(), "channel-9")

	assert.True(t, resp.Success)
	require.Len(t, indexer.items, 1)
	item := indexer.items[0]
	assert.Equal(t, "teams", item.SourceType)
	assert.Equal(t, "channel-9", item.SourceID)
	assert.Equal(t, "Alice: morning\n\nBob: standup in five", item.Content)
	assert.Equal(t, "channel-9", item.Metadata["conversation_id"])
	assert.Equal(t, 2, item.Metadata["message_count"])
}

func TestTeamsAdapter_IndexMessages_EmptyConversation(t *testing.T) {
	indexer := &capturingIndexer{}
	adapter := NewTeamsAdapter(&stubMessageSource{}, indexer, chunker.DefaultConfig())

	resp := adapter.IndexMessages(context.Background(), "channel-9")

	assert.True(t, resp.Success)
	assert.Empty(t, indexer.items)
}

func TestTeamsAdapter_IndexMessages_NoSourceConfigured(t *testing.T) {
	indexer := &capturingIndexer{}
	adapter := NewTeamsAdapter(nil, indexer, chunker.DefaultConfig())

	resp := adapter.IndexMessages(context.Background(), "channel-9")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no message source configured")
	assert.Empty(t, indexer.items)
}

func TestTeamsAdapter_IndexMessages_FetchFailure(t *testing.T) {
	source := &stubMessageSource{err: errors.New("graph api unavailable")}
	adapter := NewTeamsAdapter(source, &capturingIndexer{}, chunker.DefaultConfig())

	resp := adapter.IndexMessages(context.Background(), "channel-9")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "failed to fetch messages")
}
