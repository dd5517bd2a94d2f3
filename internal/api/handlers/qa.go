package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/groundqa/internal/api"
	"github.com/cloo-solutions/groundqa/internal/retrieval"
	"github.com/cloo-solutions/groundqa/internal/service"
)

type QAService interface {
	Ask(ctx context.Context, question string) (*service.Answer, error)
	Search(ctx context.Context, query string, k int, threshold *float64) (*retrieval.Outcome, error)
}

type QAHandler struct {
	svc QAService
}

func NewQAHandler(svc QAService) *QAHandler {
	return &QAHandler{svc: svc}
}

type GenerateRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type SearchRequest struct {
	Query     string   `json:"query" validate:"required,max=4000"`
	K         int      `json:"k,omitempty" validate:"gte=0,lte=100"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=-1,lte=1"`
}

type SearchResponse struct {
	Results  []service.Source `json:"results"`
	Grounded bool             `json:"grounded"`
	TopScore float64          `json:"top_score"`
}

// Generate answers a question, grounded in the index when it is relevant.
func (h *QAHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := api.Decode(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answer)
}

// Search returns the ranked chunks without generating an answer.
func (h *QAHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := api.Decode(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	outcome, err := h.svc.Search(r.Context(), req.Query, req.K, req.Threshold)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, outcomeToResponse(outcome))
}

func outcomeToResponse(o *retrieval.Outcome) *SearchResponse {
	results := make([]service.Source, len(o.Results))
	for i, res := range o.Results {
		results[i] = service.Source{
			ChunkID:    res.Chunk.ID,
			Text:       res.Chunk.Text,
			SourceFile: res.Chunk.SourceFile,
			Score:      res.Score,
		}
	}
	return &SearchResponse{
		Results:  results,
		Grounded: o.Grounded,
		TopScore: o.TopScore(),
	}
}
