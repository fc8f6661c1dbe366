package handlers

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"

	"github.com/cloo-solutions/docchat/internal/api"
	"github.com/cloo-solutions/docchat/internal/domain"
)

// multipart form parse buffer; larger files spill to temp files
const multipartMemoryLimit = 4 << 20

type DocumentIngester interface {
	Ingest(ctx context.Context, data io.ReaderAt, size int64, filename string) (*domain.IngestResult, error)
}

// UploadStore keeps a copy of the raw uploaded file after ingestion.
type UploadStore interface {
	Save(ctx context.Context, documentID, filename string, data []byte) error
}

type UploadHandler struct {
	svc   DocumentIngester
	store UploadStore
}

// NewUploadHandler creates an upload handler. store may be nil, in which
// case raw uploads are not retained.
func NewUploadHandler(svc DocumentIngester, store UploadStore) *UploadHandler {
	return &UploadHandler{svc: svc, store: store}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.svc.Ingest(r.Context(), bytes.NewReader(data), int64(len(data)), header.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if h.store != nil {
		// Retention is best effort; the document is already indexed.
		if err := h.store.Save(r.Context(), result.DocumentID, header.Filename, data); err != nil {
			log.Printf("upload_store_save_error: document_id=%s err=%v", result.DocumentID, err)
		}
	}

	api.Success(w, http.StatusCreated, result)
}
