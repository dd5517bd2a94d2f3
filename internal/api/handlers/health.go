package handlers

import (
	"net/http"

	"github.com/cloo-solutions/groundqa/internal/api"
)

type HealthHandler struct {
	state ArtifactState
}

func NewHealthHandler(state ArtifactState) *HealthHandler {
	return &HealthHandler{state: state}
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Artifacts ArtifactStatus `json:"artifacts"`
}

// Health reports liveness. The server stays healthy without artifacts so
// that they can be loaded later.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Artifacts: artifactStatus(h.state),
	})
}
