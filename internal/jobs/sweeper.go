package jobs

import (
	"context"
	"fmt"
	"log"
)

// UploadStore lists and discards retained raw uploads.
type UploadStore interface {
	ListDocumentIDs(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, documentID string) error
}

// DocumentLister reports the ids of documents that still exist.
type DocumentLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Sweeper removes retained uploads whose document no longer exists, for
// example when a delete request dropped the index entries but the file
// removal failed. It implements JobProcessor.
type Sweeper struct {
	store UploadStore
	docs  DocumentLister
}

func NewSweeper(store UploadStore, docs DocumentLister) *Sweeper {
	return &Sweeper{store: store, docs: docs}
}

func (s *Sweeper) ProcessJobs(ctx context.Context) error {
	retained, err := s.store.ListDocumentIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list retained uploads: %w", err)
	}
	if len(retained) == 0 {
		return nil
	}

	ids, err := s.docs.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	for _, id := range retained {
		if _, ok := known[id]; ok {
			continue
		}
		if err := s.store.Remove(ctx, id); err != nil {
			log.Printf("Failed to sweep upload for document %s: %v", id, err)
			continue
		}
		log.Printf("Swept orphaned upload for document %s", id)
	}

	return nil
}
