package storage

import "context"

// Store is anything that can retain and discard raw uploads.
type Store interface {
	Save(ctx context.Context, documentID, filename string, data []byte) error
	Remove(ctx context.Context, documentID string) error
}

// Multi fans writes out to several stores, typically local disk plus an
// S3 archive. The first failure aborts.
type Multi struct {
	stores []Store
}

func NewMulti(stores ...Store) *Multi {
	return &Multi{stores: stores}
}

func (m *Multi) Save(ctx context.Context, documentID, filename string, data []byte) error {
	for _, s := range m.stores {
		if err := s.Save(ctx, documentID, filename, data); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Remove(ctx context.Context, documentID string) error {
	for _, s := range m.stores {
		if err := s.Remove(ctx, documentID); err != nil {
			return err
		}
	}
	return nil
}
