package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// Match is one raw query hit from the backing store, including the vector id
// so callers can delete by id.
type Match struct {
	VectorID   string
	DocumentID string
	ChunkIndex int
	PageNumber int
	Text       string
	Score      float32
}

// PgVectorStore implements the vector store capability on Postgres with the
// pgvector extension, using cosine distance.
type PgVectorStore struct {
	pool *pgxpool.Pool
}

func NewPgVectorStore(pool *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{pool: pool}
}

// EnsureReady provisions the backing table and indexes if absent and verifies
// the embedding column matches the expected dimension. Safe to call more than
// once.
func (s *PgVectorStore) EnsureReady(ctx context.Context, dimension int) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
		vector_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		chunk_index INT NOT NULL,
		page_number INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create document_chunks table: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id)`); err != nil {
		return fmt.Errorf("create document_id index: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING hnsw (embedding vector_cosine_ops)`); err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}

	// atttypmod carries the declared dimension for vector columns.
	var provisioned int
	err := s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = 'document_chunks'::regclass AND attname = 'embedding'`,
	).Scan(&provisioned)
	if err != nil {
		return fmt.Errorf("inspect embedding column: %w", err)
	}
	if provisioned != dimension {
		return fmt.Errorf("document_chunks.embedding has dimension %d, expected %d", provisioned, dimension)
	}

	return nil
}

// Upsert inserts or overwrites entries by vector id inside one transaction,
// so a batch either lands whole or not at all.
func (s *PgVectorStore) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (vector_id, document_id, chunk_index, page_number, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (vector_id) DO UPDATE
			 SET content = $5, embedding = $6, page_number = $4`,
			e.VectorID,
			e.DocumentID,
			e.ChunkIndex,
			e.PageNumber,
			e.Text,
			pgvector.NewVector(e.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %d: %w", e.ChunkIndex, err)
		}
	}

	return tx.Commit(ctx)
}

// Query returns up to topK matches for the query vector, restricted to one
// document id, ordered by descending cosine similarity.
func (s *PgVectorStore) Query(ctx context.Context, vector []float32, documentID string, topK int) ([]Match, error) {
	embedding := pgvector.NewVector(vector)

	rows, err := s.pool.Query(ctx,
		`SELECT vector_id, document_id, chunk_index, page_number, content,
		        1 - (embedding <=> $1) AS score
		 FROM document_chunks
		 WHERE document_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		embedding, documentID, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.VectorID, &m.DocumentID, &m.ChunkIndex, &m.PageNumber, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return matches, nil
}

// Delete removes entries by vector id.
func (s *PgVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE vector_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}
	return nil
}
