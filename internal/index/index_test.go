package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/vectorstore"
)

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) EnsureReady(ctx context.Context, dimension int) error {
	args := m.Called(ctx, dimension)
	return args.Error(0)
}

func (m *MockVectorStore) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockVectorStore) Query(ctx context.Context, vector []float32, documentID string, topK int) ([]vectorstore.Match, error) {
	args := m.Called(ctx, vector, documentID, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vectorstore.Match), args.Error(1)
}

func (m *MockVectorStore) Delete(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func entry(docID string, chunkIndex, dim int) domain.IndexEntry {
	return domain.IndexEntry{
		VectorID:   domain.VectorID(docID, chunkIndex),
		DocumentID: docID,
		ChunkIndex: chunkIndex,
		PageNumber: 1,
		Text:       "some text",
		Embedding:  make([]float32, dim),
	}
}

func TestIndex_EnsureReady(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	store.On("EnsureReady", ctx, 1536).Return(nil)

	assert.NoError(t, idx.EnsureReady(ctx))
	store.AssertExpectations(t)
}

func TestIndex_EnsureReady_BackendFailure(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	store.On("EnsureReady", ctx, 1536).Return(errors.New("connection refused"))

	err := idx.EnsureReady(ctx)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeIndexProvisioning, domainErr.Code)
}

func TestIndex_Upsert_RejectsWrongDimension(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	err := idx.Upsert(ctx, []domain.IndexEntry{entry("doc-1", 0, 512)})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStorageWrite, domainErr.Code)
	store.AssertNotCalled(t, "Upsert")
}

func TestIndex_Upsert_WrapsBackendError(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	entries := []domain.IndexEntry{entry("doc-1", 0, 1536)}
	store.On("Upsert", ctx, entries).Return(errors.New("disk full"))

	err := idx.Upsert(ctx, entries)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStorageWrite, domainErr.Code)
	store.AssertExpectations(t)
}

func TestIndex_Search_MapsMatches(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	vector := make([]float32, 1536)
	matches := []vectorstore.Match{
		{VectorID: "doc-1_chunk_2", DocumentID: "doc-1", ChunkIndex: 2, PageNumber: 3, Text: "best match", Score: 0.91},
		{VectorID: "doc-1_chunk_0", DocumentID: "doc-1", ChunkIndex: 0, PageNumber: 1, Text: "second match", Score: 0.77},
	}
	store.On("Query", ctx, vector, "doc-1", 5).Return(matches, nil)

	results, err := idx.Search(ctx, vector, "doc-1", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "best match", results[0].Text)
	assert.Equal(t, 3, results[0].PageNumber)
	assert.Equal(t, float32(0.91), results[0].Score)
	assert.Equal(t, 0, results[1].ChunkIndex)
	store.AssertExpectations(t)
}

func TestIndex_Search_NoMatchesIsEmptyNotError(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	vector := make([]float32, 1536)
	store.On("Query", ctx, vector, "doc-empty", 5).Return([]vectorstore.Match{}, nil)

	results, err := idx.Search(ctx, vector, "doc-empty", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_WrapsBackendErrorAsQueryFailure(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	vector := make([]float32, 1536)
	store.On("Query", ctx, vector, "doc-1", 5).Return(nil, errors.New("connection reset"))

	_, err := idx.Search(ctx, vector, "doc-1", 5)
	require.Error(t, err)

	// A read failure is not a write failure.
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeInternalError, domainErr.Code)
	assert.NotEqual(t, domain.ErrCodeStorageWrite, domainErr.Code)
}

func TestIndex_DeleteAll_DeletesEveryScopedID(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	matches := []vectorstore.Match{
		{VectorID: "doc-1_chunk_0"},
		{VectorID: "doc-1_chunk_1"},
		{VectorID: "doc-1_chunk_2"},
	}
	store.On("Query", ctx, mock.Anything, "doc-1", deleteScanLimit).Return(matches, nil)
	store.On("Delete", ctx, []string{"doc-1_chunk_0", "doc-1_chunk_1", "doc-1_chunk_2"}).Return(nil)

	require.NoError(t, idx.DeleteAll(ctx, "doc-1"))
	store.AssertExpectations(t)
}

func TestIndex_DeleteAll_NothingToDelete(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	store.On("Query", ctx, mock.Anything, "doc-gone", deleteScanLimit).Return([]vectorstore.Match{}, nil)

	require.NoError(t, idx.DeleteAll(ctx, "doc-gone"))
	store.AssertNotCalled(t, "Delete")
}

func TestIndex_DeleteAll_ScanFailureIsQueryError(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	store.On("Query", ctx, mock.Anything, "doc-1", deleteScanLimit).Return(nil, errors.New("timeout"))

	err := idx.DeleteAll(ctx, "doc-1")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeInternalError, domainErr.Code)
	store.AssertNotCalled(t, "Delete")
}

func TestIndex_DeleteAll_DeleteFailureIsWriteError(t *testing.T) {
	store := new(MockVectorStore)
	idx := New(store, 1536)
	ctx := context.Background()

	matches := []vectorstore.Match{{VectorID: "doc-1_chunk_0"}}
	store.On("Query", ctx, mock.Anything, "doc-1", deleteScanLimit).Return(matches, nil)
	store.On("Delete", ctx, []string{"doc-1_chunk_0"}).Return(errors.New("disk full"))

	err := idx.DeleteAll(ctx, "doc-1")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStorageWrite, domainErr.Code)
}
