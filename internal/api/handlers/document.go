package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/docchat/internal/api"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	GetStatus(ctx context.Context, documentID string) (*service.StatusResult, error)
	Delete(ctx context.Context, documentID string) (*service.DeleteResult, error)
	List(ctx context.Context, cursor string, limit int) (*pagination.PageResult[service.ListItem], error)
}

// UploadRemover discards the retained raw upload for a document.
type UploadRemover interface {
	Remove(ctx context.Context, documentID string) error
}

type DocumentHandler struct {
	svc     DocumentService
	chat    ChatService
	remover UploadRemover
}

// NewDocumentHandler creates a document handler. remover may be nil.
func NewDocumentHandler(svc DocumentService, chat ChatService, remover UploadRemover) *DocumentHandler {
	return &DocumentHandler{svc: svc, chat: chat, remover: remover}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	page, err := h.svc.List(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, page)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.svc.GetStatus(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, status)
}

func (h *DocumentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.chat.Summarize(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SummaryResponse{DocumentID: id, Summary: summary})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if h.remover != nil {
		if err := h.remover.Remove(r.Context(), id); err != nil {
			log.Printf("upload_store_remove_error: document_id=%s err=%v", id, err)
		}
	}

	api.Success(w, http.StatusOK, result)
}
