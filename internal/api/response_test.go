package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "ok", result["status"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusOK, map[string]interface{}{"response": "Cats sleep.", "grounded": true})

	assert.Equal(t, http.StatusOK, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Cats sleep.", data["response"])
	assert.Equal(t, true, data["grounded"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "invalid input", result.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.InvalidInput("k must be positive"), http.StatusBadRequest},
		{"request validation", &ValidationError{Message: "bad"}, http.StatusBadRequest},
		{"chunk not found", domain.ErrChunkNotFound, http.StatusNotFound},
		{"unauthorized error", domain.ErrInvalidAdminToken, http.StatusUnauthorized},
		{"embedding failure", domain.EmbeddingFailure("timeout", assert.AnError), http.StatusBadGateway},
		{"generation failure", domain.GenerationFailure("timeout", assert.AnError), http.StatusBadGateway},
		{"index not loaded", domain.ErrIndexNotLoaded, http.StatusServiceUnavailable},
		{"dimension mismatch", domain.ErrDimensionMismatch, http.StatusInternalServerError},
		{"count mismatch", domain.ErrCountMismatch, http.StatusInternalServerError},
		{"inconsistent state", domain.ErrInconsistentState, http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("search: %w", domain.ErrChunkNotFound), http.StatusNotFound},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DomainErrorToHTTP(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.NewDomainError(domain.ErrCodeChunkNotFound, "audio chunk not found: chunks/talk1_chunk_4.wav"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Contains(t, result.Error, "chunks/talk1_chunk_4.wav")
	assert.Equal(t, domain.ErrCodeChunkNotFound, result.Code)
}

func TestHandleError_HidesUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "internal server error", result.Error)
	assert.Equal(t, domain.ErrCodeInternalError, result.Code)
}

func TestHandleError_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, &ValidationError{Message: "validation failed", Fields: map[string]string{"query": "query is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.ErrCodeValidation, result.Code)
	assert.Equal(t, "query is required", result.Fields["query"])
}
