package domain

import "time"

// DocumentStatus tracks a document's ingestion lifecycle.
type DocumentStatus string

const (
	DocumentStatusReady   DocumentStatus = "ready"
	DocumentStatusDeleted DocumentStatus = "deleted"
)

// Document is an uploaded, indexed source file. A valid document always has
// at least one chunk; zero extractable chunks is an ingestion failure.
type Document struct {
	ID          string
	Filename    string
	TotalPages  int
	TotalChunks int
	Status      DocumentStatus
	CreatedAt   time.Time
}

// Page is one page of extracted text. Text may be empty; empty pages
// contribute no chunks.
type Page struct {
	Number int
	Text   string
}

// Source is a citation derived from a retrieval result, returned alongside
// an answer.
type Source struct {
	PageNumber     int     `json:"page_number"`
	Preview        string  `json:"preview"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is a grounded response to a query against one document. An empty
// Sources slice with a non-empty Response is a grounding miss, not an error.
type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
	Query    string   `json:"query"`
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	TotalPages  int    `json:"total_pages"`
	Status      string `json:"status"`
}
