//go:build integration

package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 4

func unitVector(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func entriesFor(documentID string, count, axis int) []domain.IndexEntry {
	entries := make([]domain.IndexEntry, count)
	for i := range entries {
		entries[i] = domain.IndexEntry{
			VectorID:   domain.VectorID(documentID, i),
			DocumentID: documentID,
			ChunkIndex: i,
			PageNumber: i + 1,
			Text:       fmt.Sprintf("chunk %d of %s", i, documentID),
			Embedding:  unitVector(testDimension, axis),
		}
	}
	return entries
}

func newTestStore(ctx context.Context, t *testing.T) *PgVectorStore {
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	return NewPgVectorStore(pool)
}

func TestPgVectorStore_EnsureReadyIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(ctx, t)

	// Migrations provision with the production dimension, so a store with a
	// different one has to detect the mismatch.
	require.NoError(t, store.EnsureReady(ctx, 1536))
	require.NoError(t, store.EnsureReady(ctx, 1536))

	err := store.EnsureReady(ctx, 768)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestPgVectorStore_UpsertAndQueryScoped(t *testing.T) {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	// Re-provision with a small dimension to keep fixtures readable.
	_, err := pool.Exec(ctx, `DROP TABLE document_chunks`)
	require.NoError(t, err)
	store := NewPgVectorStore(pool)
	require.NoError(t, store.EnsureReady(ctx, testDimension))

	require.NoError(t, store.Upsert(ctx, entriesFor("doc-a", 3, 0)))
	require.NoError(t, store.Upsert(ctx, entriesFor("doc-b", 2, 1)))

	matches, err := store.Query(ctx, unitVector(testDimension, 0), "doc-a", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, "doc-a", m.DocumentID)
		assert.InDelta(t, 1.0, m.Score, 0.001)
	}

	// An orthogonal query still only sees the scoped document.
	matches, err = store.Query(ctx, unitVector(testDimension, 1), "doc-a", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, "doc-a", m.DocumentID)
	}
}

func TestPgVectorStore_UpsertOverwritesByVectorID(t *testing.T) {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	_, err := pool.Exec(ctx, `DROP TABLE document_chunks`)
	require.NoError(t, err)
	store := NewPgVectorStore(pool)
	require.NoError(t, store.EnsureReady(ctx, testDimension))

	entries := entriesFor("doc-a", 1, 0)
	require.NoError(t, store.Upsert(ctx, entries))

	entries[0].Text = "rewritten"
	require.NoError(t, store.Upsert(ctx, entries))

	matches, err := store.Query(ctx, unitVector(testDimension, 0), "doc-a", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "rewritten", matches[0].Text)
}

func TestPgVectorStore_DeleteByIDs(t *testing.T) {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	_, err := pool.Exec(ctx, `DROP TABLE document_chunks`)
	require.NoError(t, err)
	store := NewPgVectorStore(pool)
	require.NoError(t, store.EnsureReady(ctx, testDimension))

	require.NoError(t, store.Upsert(ctx, entriesFor("doc-a", 3, 0)))
	require.NoError(t, store.Upsert(ctx, entriesFor("doc-b", 2, 1)))

	require.NoError(t, store.Delete(ctx, []string{
		domain.VectorID("doc-a", 0),
		domain.VectorID("doc-a", 1),
		domain.VectorID("doc-a", 2),
	}))

	matches, err := store.Query(ctx, unitVector(testDimension, 0), "doc-a", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Other documents are untouched.
	matches, err = store.Query(ctx, unitVector(testDimension, 1), "doc-b", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestPgVectorStore_DeleteEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(ctx, t)

	assert.NoError(t, store.Delete(ctx, nil))
}
