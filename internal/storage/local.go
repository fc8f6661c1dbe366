package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps raw uploads on disk under a single directory, one file
// per document named {documentID}_{filename}.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the raw upload bytes for a document.
func (s *LocalStore) Save(ctx context.Context, documentID, filename string, data []byte) error {
	path := filepath.Join(s.dir, objectKey(documentID, filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write upload: %w", err)
	}
	return nil
}

// Remove deletes every retained file for a document.
func (s *LocalStore) Remove(ctx context.Context, documentID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, documentID+"_*"))
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}

	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove upload: %w", err)
		}
	}
	return nil
}

// ListDocumentIDs returns the document id of every retained upload.
func (s *LocalStore) ListDocumentIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, _, found := strings.Cut(entry.Name(), "_")
		if !found || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// objectKey strips any path components from the client-supplied filename.
func objectKey(documentID, filename string) string {
	return documentID + "_" + filepath.Base(filename)
}
