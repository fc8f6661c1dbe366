//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(ctx context.Context, t *testing.T) *DocumentRepository {
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	return NewDocumentRepository(pool)
}

func newTestDocument() *domain.Document {
	return &domain.Document{
		ID:          uuid.NewString(),
		Filename:    "report.pdf",
		TotalPages:  12,
		TotalChunks: 40,
		Status:      domain.DocumentStatusReady,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(ctx, t)

	doc := newTestDocument()
	require.NoError(t, repo.Create(ctx, doc))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Filename, retrieved.Filename)
	assert.Equal(t, doc.TotalPages, retrieved.TotalPages)
	assert.Equal(t, doc.TotalChunks, retrieved.TotalChunks)
	assert.Equal(t, domain.DocumentStatusReady, retrieved.Status)
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(ctx, t)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(ctx, t)

	doc := newTestDocument()
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.Delete(ctx, doc.ID))

	_, err := repo.GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, doc.ID), domain.ErrDocumentNotFound)
}

func TestDocumentRepository_ListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(ctx, t)

	base := time.Now().UTC().Truncate(time.Microsecond)
	var created []*domain.Document
	for i := 0; i < 5; i++ {
		doc := newTestDocument()
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, doc))
		created = append(created, doc)
	}

	first, err := repo.List(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, created[4].ID, first[0].ID)
	assert.Equal(t, created[3].ID, first[1].ID)

	cursor := &pagination.Cursor{LastID: first[1].ID, Timestamp: first[1].CreatedAt}
	second, err := repo.List(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, created[2].ID, second[0].ID)
	assert.Equal(t, created[1].ID, second[1].ID)

	cursor = &pagination.Cursor{LastID: second[1].ID, Timestamp: second[1].CreatedAt}
	last, err := repo.List(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, created[0].ID, last[0].ID)
}

func TestDocumentRepository_ListIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(ctx, t)

	a := newTestDocument()
	b := newTestDocument()
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}
