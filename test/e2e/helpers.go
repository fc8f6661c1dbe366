//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docchat/internal/api/handlers"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/extract"
	"github.com/cloo-solutions/docchat/internal/index"
	"github.com/cloo-solutions/docchat/internal/repository"
	"github.com/cloo-solutions/docchat/internal/server"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/cloo-solutions/docchat/internal/storage"
	"github.com/cloo-solutions/docchat/internal/testutil"
	"github.com/cloo-solutions/docchat/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimension = 1536

// hashEmbedder produces deterministic embeddings so retrieval works without
// a real model. Similar inputs do not get similar vectors; tests only rely
// on scoped, non-empty retrieval.
type hashEmbedder struct{}

func (hashEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, embeddingDimension)
		for j := range vec {
			word := binary.BigEndian.Uint16(sum[(j*2)%30 : (j*2)%30+2])
			vec[j] = float32(word)/65535 + 0.001
		}
		out[i] = vec
	}
	return out, nil
}

// echoCompletion returns a canned answer that includes the last user message,
// so tests can assert the retrieved context reached the model.
type echoCompletion struct{}

func (echoCompletion) Complete(ctx context.Context, messages []domain.ConversationTurn, maxTokens int, temperature float32) (string, error) {
	last := messages[len(messages)-1].Content
	return "model saw: " + last, nil
}

// TestEnv holds all resources needed for end to end tests.
type TestEnv struct {
	T         *testing.T
	Ctx       context.Context
	Pool      *pgxpool.Pool
	Server    *httptest.Server
	UploadDir string
	Client    *http.Client
}

// SetupTestEnv starts a pgvector container and an in-process HTTP server
// wired exactly like the serve command, with stubbed model clients.
func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pgC.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")
	t.Cleanup(pool.Close)

	store := vectorstore.NewPgVectorStore(pool)
	vectorIndex := index.New(store, embeddingDimension)
	if err := vectorIndex.EnsureReady(ctx); err != nil {
		t.Fatalf("failed to provision vector index: %v", err)
	}

	docRepo := repository.NewDocumentRepository(pool)

	uploadDir := t.TempDir()
	localStore, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	segmenter := service.NewSegmenter(service.DefaultSegmentConfig())
	extractor := extract.New()
	embedder := hashEmbedder{}

	docSvc := service.NewDocumentService(extractor, segmenter, embedder, vectorIndex, docRepo, nil)
	chatSvc := service.NewChatService(embedder, vectorIndex, echoCompletion{}, service.DefaultChatConfig())

	router := server.NewRouter(server.RouterConfig{
		UploadHandler:   handlers.NewUploadHandler(docSvc, localStore),
		ChatHandler:     handlers.NewChatHandler(chatSvc),
		DocumentHandler: handlers.NewDocumentHandler(docSvc, chatSvc, localStore),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &TestEnv{
		T:         t,
		Ctx:       ctx,
		Pool:      pool,
		Server:    srv,
		UploadDir: uploadDir,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Upload posts a text file through the multipart endpoint.
func (e *TestEnv) Upload(filename, content string) (int, *APIResponse) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		e.T.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
		e.T.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		e.T.Fatalf("failed to close form: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.Server.URL+"/upload", body)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return e.do(req)
}

// PostJSON posts a JSON body.
func (e *TestEnv) PostJSON(path string, payload interface{}) (int, *APIResponse) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.T.Fatalf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.Server.URL+path, bytes.NewReader(data))
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return e.do(req)
}

// Get performs a GET request.
func (e *TestEnv) Get(path string) (int, *APIResponse) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	return e.do(req)
}

// Delete performs a DELETE request.
func (e *TestEnv) Delete(path string) (int, *APIResponse) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	return e.do(req)
}

func (e *TestEnv) do(req *http.Request) (int, *APIResponse) {
	resp, err := e.Client.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	var apiResp APIResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &apiResp); err != nil {
			e.T.Fatalf("failed to parse response %q: %v", string(body), err)
		}
	}

	return resp.StatusCode, &apiResp
}

// ChunkCount returns the number of index entries for a document.
func (e *TestEnv) ChunkCount(documentID string) int {
	var count int
	err := e.Pool.QueryRow(e.Ctx,
		"SELECT count(*) FROM document_chunks WHERE document_id = $1", documentID,
	).Scan(&count)
	if err != nil {
		e.T.Fatalf("failed to count chunks: %v", err)
	}
	return count
}

func mustUnmarshal(t *testing.T, data json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal %q: %v", string(data), err)
	}
}
