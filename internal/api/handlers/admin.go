package handlers

import (
	"net/http"

	"github.com/cloo-solutions/groundqa/internal/api"
	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
)

// Reloader reloads artifacts from disk.
type Reloader interface {
	Reload() error
}

// ArtifactState exposes the artifacts currently served.
type ArtifactState interface {
	Store() *index.Store
	Table() *audio.Table
}

type AdminHandler struct {
	reloader Reloader
	state    ArtifactState
}

func NewAdminHandler(reloader Reloader, state ArtifactState) *AdminHandler {
	return &AdminHandler{reloader: reloader, state: state}
}

type ArtifactStatus struct {
	TextEntries     int  `json:"text_entries"`
	TextDimension   int  `json:"text_dimension"`
	TextLoaded      bool `json:"text_loaded"`
	AudioRows       int  `json:"audio_rows"`
	AudioSearchable int  `json:"audio_searchable"`
	AudioLoaded     bool `json:"audio_loaded"`
}

func artifactStatus(state ArtifactState) ArtifactStatus {
	var status ArtifactStatus
	if store := state.Store(); store != nil {
		status.TextLoaded = true
		status.TextEntries = store.Size()
		status.TextDimension = store.Dimension()
	}
	if table := state.Table(); table != nil {
		status.AudioLoaded = true
		status.AudioRows = table.Len()
		status.AudioSearchable = table.Searchable()
	}
	return status
}

// Reload reloads every artifact. Artifacts that fail to load keep serving
// their previous version and the failure is reported.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.reloader.Reload(); err != nil {
		api.HandleError(w, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "artifact reload failed", err))
		return
	}

	api.Success(w, http.StatusOK, artifactStatus(h.state))
}
