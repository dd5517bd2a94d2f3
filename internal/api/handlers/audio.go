package handlers

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/groundqa/internal/api"
	"github.com/cloo-solutions/groundqa/internal/service"
)

type AudioService interface {
	Search(ctx context.Context, query string, k int) (*service.AudioResult, error)
}

// ChunkResolver maps a requested chunk file name to a path on disk.
type ChunkResolver interface {
	ResolveName(name string) (string, error)
}

type AudioHandler struct {
	svc      AudioService
	resolver ChunkResolver
}

func NewAudioHandler(svc AudioService, resolver ChunkResolver) *AudioHandler {
	return &AudioHandler{svc: svc, resolver: resolver}
}

type AudioSearchRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
	K     int    `json:"k,omitempty" validate:"gte=0,lte=100"`
}

// Search finds the segment whose transcription best matches the query.
func (h *AudioHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req AudioSearchRequest
	if err := api.Decode(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.svc.Search(r.Context(), req.Query, req.K)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

// Chunk streams a media chunk file from the chunk root.
func (h *AudioHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := h.resolver.ResolveName(name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", "inline; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}
