package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockContentRepo struct {
	mock.Mock
}

func (m *mockContentRepo) Upsert(ctx context.Context, c *domain.IndexedContent) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockContentRepo) UpsertSourceMetadata(ctx context.Context, meta *domain.SourceMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *mockContentRepo) GetByID(ctx context.Context, contentID string) (*domain.IndexedContent, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexedContent), args.Error(1)
}

func (m *mockContentRepo) Count(ctx context.Context, sourceType, sourceID string) (int64, error) {
	args := m.Called(ctx, sourceType, sourceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockContentRepo) DeleteByID(ctx context.Context, contentID string) error {
	args := m.Called(ctx, contentID)
	return args.Error(0)
}

func (m *mockContentRepo) DeleteBySource(ctx context.Context, sourceType, sourceID string) (int64, error) {
	args := m.Called(ctx, sourceType, sourceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockContentRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.IndexedContent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IndexedContent), args.Error(1)
}

func (m *mockContentRepo) UpdateEmbedding(ctx context.Context, contentID string, embedding []float32) error {
	args := m.Called(ctx, contentID, embedding)
	return args.Error(0)
}

// stubTxRunner runs the callback against the same repository, so tests
// observe the writes made inside the transaction.
type stubTxRunner struct {
	repo ContentRepositoryInterface
	err  error
}

func (r *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if r.err != nil {
		return r.err
	}
	return fn(&stubTxRepos{repo: r.repo})
}

type stubTxRepos struct {
	repo ContentRepositoryInterface
}

func (r *stubTxRepos) Content() ContentRepositoryInterface { return r.repo }

// stubSearcher returns a fixed result list.
type stubSearcher struct {
	results []domain.SearchResult
}

func (s *stubSearcher) Search(ctx context.Context, query string, searchType domain.SearchType, opts domain.SearchOptions) []domain.SearchResult {
	return s.results
}

func TestToolsService_Search_PaginatesResults(t *testing.T) {
	searcher := &stubSearcher{results: []domain.SearchResult{
		result("a"), result("b"), result("c"), result("d"),
	}}
	svc := NewToolsService(&mockContentRepo{}, searcher, nil, &stubTxRunner{})

	resp := svc.Search(context.Background(), SearchRequest{Query: "query", Limit: 2, Offset: 1})

	assert.Empty(t, resp.Error)
	assert.Equal(t, 4, resp.TotalResults)
	assert.Equal(t, 1, resp.Offset)
	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "b", resp.Results[0].ContentID)
	assert.Equal(t, "c", resp.Results[1].ContentID)
}

func TestToolsService_Search_EmptyQuery(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.Search(context.Background(), SearchRequest{Query: "   "})

	assert.Equal(t, "query cannot be empty", resp.Error)
	assert.Empty(t, resp.Results)
}

func TestToolsService_Search_UnknownTypeFallsBackToFulltext(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.Search(context.Background(), SearchRequest{Query: "query", SearchType: "mystery"})

	assert.Equal(t, string(domain.SearchTypeFulltext), resp.SearchType)
	assert.Empty(t, resp.Error)
}

func TestToolsService_Search_EmptyTypeDefaultsToHybrid(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.Search(context.Background(), SearchRequest{Query: "query"})

	assert.Equal(t, string(domain.SearchTypeHybrid), resp.SearchType)
}

type rewritingAdapter struct {
	sourceType string
	prefix     string
}

func (a *rewritingAdapter) SourceType() string { return a.sourceType }

func (a *rewritingAdapter) TransformQuery(query string) string { return a.prefix + query }

// capturingSearcher records the query it was called with.
type capturingSearcher struct {
	query string
}

func (s *capturingSearcher) Search(ctx context.Context, query string, searchType domain.SearchType, opts domain.SearchOptions) []domain.SearchResult {
	s.query = query
	return nil
}

func TestToolsService_Search_AppliesAdapterTransform(t *testing.T) {
	searcher := &capturingSearcher{}
	svc := NewToolsService(&mockContentRepo{}, searcher, nil, &stubTxRunner{})
	svc.RegisterAdapter(&rewritingAdapter{sourceType: "wiki", prefix: "title:"})

	svc.Search(context.Background(), SearchRequest{Query: "deploy", SourceType: "wiki"})

	assert.Equal(t, "title:deploy", searcher.query)
}

func TestToolsService_Search_NoAdapterLeavesQueryUnchanged(t *testing.T) {
	searcher := &capturingSearcher{}
	svc := NewToolsService(&mockContentRepo{}, searcher, nil, &stubTxRunner{})

	svc.Search(context.Background(), SearchRequest{Query: "deploy", SourceType: "teams"})

	assert.Equal(t, "deploy", searcher.query)
}

func TestToolsService_IndexContent_GeneratesContentID(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.IndexedContent) bool {
		return c.ContentID != "" && c.SourceType == "teams"
	})).Return(nil)

	embeddings := &mockEmbeddings{}
	embeddings.On("GetEmbedding", mock.Anything, "hello").Return([]float32{0.1}, nil)

	svc := NewToolsService(repo, &stubSearcher{}, embeddings, &stubTxRunner{})
	resp := svc.IndexContent(context.Background(), IndexContentRequest{
		Content:    "hello",
		SourceType: "teams",
	})

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ContentID)
	repo.AssertExpectations(t)
}

func TestToolsService_IndexContent_ValidationFailure(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.IndexContent(context.Background(), IndexContentRequest{SourceType: "teams"})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "content cannot be empty")
}

func TestToolsService_IndexContent_NoProviderIndexesWithoutEmbedding(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.IndexedContent) bool {
		return c.Embedding == nil
	})).Return(nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.IndexContent(context.Background(), IndexContentRequest{
		Content:    "hello",
		SourceType: "teams",
	})

	assert.True(t, resp.Success)
	repo.AssertExpectations(t)
}

func TestToolsService_IndexContent_ProviderFailureRejectsItem(t *testing.T) {
	repo := &mockContentRepo{}
	embeddings := &mockEmbeddings{}
	embeddings.On("GetEmbedding", mock.Anything, "hello").
		Return(nil, errors.New("rate limited"))

	svc := NewToolsService(repo, &stubSearcher{}, embeddings, &stubTxRunner{})
	resp := svc.IndexContent(context.Background(), IndexContentRequest{
		Content:    "hello",
		SourceType: "teams",
	})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "PROVIDER_ERROR")
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestToolsService_IndexContent_StoresSourceMetadata(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpsertSourceMetadata", mock.Anything, mock.MatchedBy(func(m *domain.SourceMetadata) bool {
		return m.ContentID == "msg-1" && m.SourceID == "channel-9"
	})).Return(nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.IndexContent(context.Background(), IndexContentRequest{
		Content:    "hello",
		SourceType: "teams",
		ContentID:  "msg-1",
		SourceID:   "channel-9",
		SourceData: map[string]any{"channel": "general"},
	})

	assert.True(t, resp.Success)
	repo.AssertExpectations(t)
}

func TestToolsService_BulkIndexContent_BatchesEmbeddingsAndWrites(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Times(2)

	embeddings := &mockEmbeddings{}
	embeddings.On("GetEmbeddings", mock.Anything, []string{"one", "two"}).
		Return([][]float32{{0.1}, {0.2}}, nil).Once()

	svc := NewToolsService(repo, &stubSearcher{}, embeddings, &stubTxRunner{repo: repo})
	resp := svc.BulkIndexContent(context.Background(), []domain.BulkItem{
		{Content: "one", SourceType: "teams"},
		{Content: "two", SourceType: "teams"},
	})

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 2, resp.IndexedCount)
	repo.AssertExpectations(t)
	embeddings.AssertExpectations(t)
}

func TestToolsService_BulkIndexContent_ProviderFailureIndexesNothing(t *testing.T) {
	repo := &mockContentRepo{}
	embeddings := &mockEmbeddings{}
	embeddings.On("GetEmbeddings", mock.Anything, []string{"one", "two"}).
		Return(nil, errors.New("rate limited"))

	svc := NewToolsService(repo, &stubSearcher{}, embeddings, &stubTxRunner{repo: repo})
	resp := svc.BulkIndexContent(context.Background(), []domain.BulkItem{
		{Content: "one", SourceType: "teams"},
		{Content: "two", SourceType: "teams"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.IndexedCount)
	assert.Contains(t, resp.Error, "PROVIDER_ERROR")
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestToolsService_BulkIndexContent_InvalidItemAbortsBeforeWrites(t *testing.T) {
	repo := &mockContentRepo{}
	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{repo: repo})

	resp := svc.BulkIndexContent(context.Background(), []domain.BulkItem{
		{Content: "ok", SourceType: "teams"},
		{Content: "", SourceType: "teams"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.IndexedCount)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestToolsService_BulkIndexContent_TxFailureReportsError(t *testing.T) {
	repo := &mockContentRepo{}
	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{repo: repo, err: errors.New("deadlock")})

	resp := svc.BulkIndexContent(context.Background(), []domain.BulkItem{
		{Content: "one", SourceType: "teams"},
	})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "bulk indexing failed")
}

func TestToolsService_BulkIndexContent_EmptyBatch(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.BulkIndexContent(context.Background(), nil)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.TotalItems)
}

func TestToolsService_GetContent_Found(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("GetByID", mock.Anything, "msg-1").Return(&domain.IndexedContent{
		ContentID:  "msg-1",
		SourceType: "teams",
		Content:    "hello",
		Embedding:  []float32{0.1},
	}, nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.GetContent(context.Background(), "msg-1")

	require.True(t, resp.Found)
	assert.Equal(t, "msg-1", resp.Content.ContentID)
	assert.True(t, resp.Content.HasEmbedding)
}

func TestToolsService_GetContent_NotFound(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrContentNotFound)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.GetContent(context.Background(), "missing")

	assert.False(t, resp.Found)
	assert.Empty(t, resp.Error)
	assert.Nil(t, resp.Content)
}

func TestToolsService_GetContentCount(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("Count", mock.Anything, "teams", "").Return(int64(42), nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.GetContentCount(context.Background(), "teams", "")

	assert.Equal(t, int64(42), resp.Count)
	assert.Empty(t, resp.Error)
}

func TestToolsService_DeleteContent_RequiresSelector(t *testing.T) {
	svc := NewToolsService(&mockContentRepo{}, &stubSearcher{}, nil, &stubTxRunner{})

	resp := svc.DeleteContent(context.Background(), "", "", "")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "content_id or source_type")
}

func TestToolsService_DeleteContent_ByID(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("DeleteByID", mock.Anything, "msg-1").Return(nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.DeleteContent(context.Background(), "msg-1", "", "")

	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.DeletedCount)
}

func TestToolsService_DeleteContent_ByIDNotFound(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("DeleteByID", mock.Anything, "missing").Return(domain.ErrContentNotFound)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.DeleteContent(context.Background(), "missing", "", "")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not found")
}

func TestToolsService_DeleteContent_BySource(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("DeleteBySource", mock.Anything, "teams", "").Return(int64(7), nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.DeleteContent(context.Background(), "", "teams", "")

	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.DeletedCount)
}

func TestToolsService_DeleteContent_BySourceAndSourceID(t *testing.T) {
	repo := &mockContentRepo{}
	repo.On("DeleteBySource", mock.Anything, "teams", "conv-1").Return(int64(3), nil)

	svc := NewToolsService(repo, &stubSearcher{}, nil, &stubTxRunner{})
	resp := svc.DeleteContent(context.Background(), "", "teams", "conv-1")

	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), resp.DeletedCount)
}
