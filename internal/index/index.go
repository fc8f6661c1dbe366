package index

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/vectorstore"
)

// deleteScanLimit bounds the scan used by DeleteAll. Documents with more
// chunks than this can leave residual vectors behind; with the default chunk
// size that is roughly ten thousand pages of text.
const deleteScanLimit = 10000

// VectorStore is the narrow capability the index is built on.
type VectorStore interface {
	EnsureReady(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Query(ctx context.Context, vector []float32, documentID string, topK int) ([]vectorstore.Match, error)
	Delete(ctx context.Context, ids []string) error
}

// Index is the per-deployment vector index, logically partitioned by document
// id. Every read and delete is scoped to one document; the index is never
// searched or purged without that scope.
type Index struct {
	store     VectorStore
	dimension int
}

func New(store VectorStore, dimension int) *Index {
	return &Index{store: store, dimension: dimension}
}

// EnsureReady provisions the backing index if needed. Idempotent; intended to
// run once at startup, not per request.
func (i *Index) EnsureReady(ctx context.Context) error {
	if err := i.store.EnsureReady(ctx, i.dimension); err != nil {
		return domain.NewIndexProvisioningError(err)
	}
	return nil
}

// Upsert writes entries to the store. The whole batch succeeds or the call
// fails; callers must treat a failed batch as an inconsistent index state.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != i.dimension {
			return domain.NewStorageWriteError(
				fmt.Errorf("entry %s has dimension %d, expected %d", e.VectorID, len(e.Embedding), i.dimension))
		}
	}
	if err := i.store.Upsert(ctx, entries); err != nil {
		return domain.NewStorageWriteError(err)
	}
	return nil
}

// Search returns up to topK results for the query vector within one document,
// ordered by descending similarity. No matches is an empty slice, not an
// error.
func (i *Index) Search(ctx context.Context, vector []float32, documentID string, topK int) ([]domain.RetrievalResult, error) {
	matches, err := i.store.Query(ctx, vector, documentID, topK)
	if err != nil {
		return nil, domain.NewIndexQueryError(err)
	}

	results := make([]domain.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.RetrievalResult{
			Text:       m.Text,
			PageNumber: m.PageNumber,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
		})
	}
	return results, nil
}

// DeleteAll removes every entry scoped to the document id, up to
// deleteScanLimit entries. The scan-then-delete shape mirrors backends
// without a filtered bulk delete; the bound is a documented limitation.
func (i *Index) DeleteAll(ctx context.Context, documentID string) error {
	// The query vector is irrelevant here; only the ids of the scoped
	// matches matter.
	probe := make([]float32, i.dimension)

	matches, err := i.store.Query(ctx, probe, documentID, deleteScanLimit)
	if err != nil {
		return domain.NewIndexQueryError(err)
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.VectorID)
	}

	if err := i.store.Delete(ctx, ids); err != nil {
		return domain.NewStorageWriteError(err)
	}
	return nil
}
