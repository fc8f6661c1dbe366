package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/telemetry"
)

// EmbeddingClient defines the interface for batched embedding generation.
// Output order matches input order.
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex defines the document-scoped index operations the services use.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Search(ctx context.Context, vector []float32, documentID string, topK int) ([]domain.RetrievalResult, error)
	DeleteAll(ctx context.Context, documentID string) error
}

// TextExtractor defines the interface for per-page text extraction.
type TextExtractor interface {
	Extract(data io.ReaderAt, size int64, filename string) ([]domain.Page, error)
}

// DocumentRepository defines the metadata persistence the services need.
type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.Document, error)
}

// UUIDGenerator defines the interface for generating unique IDs
type UUIDGenerator interface {
	Generate() string
}

// DefaultUUIDGenerator generates UUIDs using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) Generate() string {
	return uuid.NewString()
}

// DeleteResult reports a completed document deletion.
type DeleteResult struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id"`
}

// StatusResult reports a document's current lifecycle state.
type StatusResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
}

// ListItem is one document in a listing.
type ListItem struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	TotalChunks int       `json:"total_chunks"`
	TotalPages  int       `json:"total_pages"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// DocumentService runs the ingestion pipeline: extract pages, segment them,
// embed the chunks, and upsert everything into the vector index. It also
// owns deletion and status lookup.
type DocumentService struct {
	extractor TextExtractor
	segmenter *Segmenter
	embedder  EmbeddingClient
	index     VectorIndex
	repo      DocumentRepository
	uuidGen   UUIDGenerator
}

func NewDocumentService(
	extractor TextExtractor,
	segmenter *Segmenter,
	embedder EmbeddingClient,
	index VectorIndex,
	repo DocumentRepository,
	uuidGen UUIDGenerator,
) *DocumentService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &DocumentService{
		extractor: extractor,
		segmenter: segmenter,
		embedder:  embedder,
		index:     index,
		repo:      repo,
		uuidGen:   uuidGen,
	}
}

// Ingest turns a raw uploaded file into an indexed, queryable document.
// Steps run sequentially and any failure aborts the whole ingestion; vectors
// already upserted from a failed batch are not rolled back.
func (s *DocumentService) Ingest(ctx context.Context, data io.ReaderAt, size int64, filename string) (*domain.IngestResult, error) {
	if filename == "" {
		return nil, domain.ErrMissingFilename
	}

	documentID := s.uuidGen.Generate()

	ctx, span := telemetry.StartSpan(ctx, "document.ingest", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ingest",
	})
	defer span.End()

	pages, err := s.extractor.Extract(data, size, filename)
	if err != nil {
		return nil, err
	}

	// totalPages counts pages that contributed chunks; trailing pages with
	// no extractable text don't inflate it.
	var chunks []domain.Chunk
	totalPages := 0
	for _, page := range pages {
		pageChunks := s.segmenter.Segment(page.Text, page.Number, documentID, len(chunks))
		chunks = append(chunks, pageChunks...)
		for _, c := range pageChunks {
			if c.PageNumber > totalPages {
				totalPages = c.PageNumber
			}
		}
	}

	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			VectorID:   domain.VectorID(documentID, c.ChunkIndex),
			DocumentID: documentID,
			ChunkIndex: c.ChunkIndex,
			PageNumber: c.PageNumber,
			Text:       c.Text,
			Embedding:  embeddings[i],
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:          documentID,
		Filename:    filename,
		TotalPages:  totalPages,
		TotalChunks: len(chunks),
		Status:      domain.DocumentStatusReady,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	return &domain.IngestResult{
		DocumentID:  documentID,
		Filename:    filename,
		TotalChunks: len(chunks),
		TotalPages:  totalPages,
		Status:      string(domain.DocumentStatusReady),
	}, nil
}

// Delete removes every index entry scoped to the document, then the
// metadata row.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (*DeleteResult, error) {
	if documentID == "" {
		return nil, domain.ErrMissingDocumentID
	}

	ctx, span := telemetry.StartSpan(ctx, "document.delete", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "delete",
	})
	defer span.End()

	if _, err := s.repo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	if err := s.index.DeleteAll(ctx, documentID); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, documentID); err != nil {
		return nil, err
	}

	return &DeleteResult{
		Status:     string(domain.DocumentStatusDeleted),
		DocumentID: documentID,
	}, nil
}

// List returns a page of documents, newest first. An empty cursor starts from
// the top; the returned cursor resumes where this page ended.
func (s *DocumentService) List(ctx context.Context, cursor string, limit int) (*pagination.PageResult[ListItem], error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}

	docs, err := s.repo.List(ctx, decoded, limit)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(docs))
	for i, d := range docs {
		items[i] = ListItem{
			DocumentID:  d.ID,
			Filename:    d.Filename,
			TotalChunks: d.TotalChunks,
			TotalPages:  d.TotalPages,
			Status:      string(d.Status),
			CreatedAt:   d.CreatedAt,
		}
	}

	next := pagination.CreateNextCursor(docs, limit,
		func(d domain.Document) string { return d.ID },
		func(d domain.Document) time.Time { return d.CreatedAt },
	)

	return &pagination.PageResult[ListItem]{
		Items:   items,
		Cursor:  next,
		HasMore: next != "",
	}, nil
}

// GetStatus reports whether a document is ready for chat.
func (s *DocumentService) GetStatus(ctx context.Context, documentID string) (*StatusResult, error) {
	if documentID == "" {
		return nil, domain.ErrMissingDocumentID
	}

	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Status:     string(doc.Status),
	}, nil
}
