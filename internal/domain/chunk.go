package domain

import "fmt"

// Chunk is a bounded, overlap-preserving segment of one page's text, the
// atomic unit of embedding and retrieval.
type Chunk struct {
	Text       string
	PageNumber int
	DocumentID string
	ChunkIndex int
}

// IndexEntry pairs one chunk's metadata with its embedding for persistence
// in the vector index.
type IndexEntry struct {
	VectorID   string
	DocumentID string
	ChunkIndex int
	PageNumber int
	Text       string
	Embedding  []float32
}

// VectorID derives the deterministic vector id for a (document, chunk) pair,
// so re-ingesting the same document id overwrites rather than duplicates.
func VectorID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, chunkIndex)
}

// RetrievalResult is one search hit from the vector index, scored by cosine
// similarity in [-1, 1].
type RetrievalResult struct {
	Text       string
	PageNumber int
	ChunkIndex int
	Score      float32
}

// ConversationTurn is one message of the caller-supplied chat history.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Valid conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
