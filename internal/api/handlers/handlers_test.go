package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
	"github.com/cloo-solutions/groundqa/internal/retrieval"
	"github.com/cloo-solutions/groundqa/internal/service"
)

type MockQAService struct {
	mock.Mock
}

func (m *MockQAService) Ask(ctx context.Context, question string) (*service.Answer, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

func (m *MockQAService) Search(ctx context.Context, query string, k int, threshold *float64) (*retrieval.Outcome, error) {
	args := m.Called(ctx, query, k, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Outcome), args.Error(1)
}

type MockAudioService struct {
	mock.Mock
}

func (m *MockAudioService) Search(ctx context.Context, query string, k int) (*service.AudioResult, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AudioResult), args.Error(1)
}

type MockReloader struct {
	mock.Mock
}

func (m *MockReloader) Reload() error {
	return m.Called().Error(0)
}

type fixedState struct {
	store *index.Store
	table *audio.Table
}

func (s fixedState) Store() *index.Store { return s.store }
func (s fixedState) Table() *audio.Table { return s.table }

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data: %s", w.Body.String())
	return data
}

func TestQAHandler_Generate_Success(t *testing.T) {
	mockSvc := new(MockQAService)
	handler := NewQAHandler(mockSvc)

	mockSvc.On("Ask", mock.Anything, "what do cats do?").Return(&service.Answer{
		Response: "Cats purr.",
		Grounded: true,
		Sources:  []service.Source{{ChunkID: 0, Text: "Cats purr.", SourceFile: "cats.txt", Score: 0.91}},
	}, nil)

	w := httptest.NewRecorder()
	handler.Generate(w, postJSON("/generate", `{"question":"what do cats do?"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Cats purr.", data["response"])
	assert.Equal(t, true, data["grounded"])
	assert.Len(t, data["sources"], 1)
	mockSvc.AssertExpectations(t)
}

func TestQAHandler_Generate_MissingQuestion(t *testing.T) {
	mockSvc := new(MockQAService)
	handler := NewQAHandler(mockSvc)

	w := httptest.NewRecorder()
	handler.Generate(w, postJSON("/generate", `{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "question is required")
	mockSvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestQAHandler_Generate_InvalidJSON(t *testing.T) {
	handler := NewQAHandler(new(MockQAService))

	w := httptest.NewRecorder()
	handler.Generate(w, postJSON("/generate", `{invalid`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestQAHandler_Generate_CapabilityFailure(t *testing.T) {
	mockSvc := new(MockQAService)
	handler := NewQAHandler(mockSvc)

	mockSvc.On("Ask", mock.Anything, "q").Return(nil, domain.GenerationFailure("generation timed out", context.DeadlineExceeded))

	w := httptest.NewRecorder()
	handler.Generate(w, postJSON("/generate", `{"question":"q"}`))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeGenerationFailure)
}

func TestQAHandler_Search_Success(t *testing.T) {
	mockSvc := new(MockQAService)
	handler := NewQAHandler(mockSvc)

	threshold := 0.5
	mockSvc.On("Search", mock.Anything, "cats", 2, &threshold).Return(&retrieval.Outcome{
		Results: []retrieval.Result{
			{Index: 0, Chunk: domain.Chunk{ID: 0, Text: "Cats purr.", SourceFile: "a.txt"}, Score: 0.9},
			{Index: 1, Chunk: domain.Chunk{ID: 1, Text: "Dogs bark.", SourceFile: "a.txt"}, Score: 0.3},
		},
		Grounded: true,
	}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, postJSON("/search", `{"query":"cats","k":2,"threshold":0.5}`))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["grounded"])
	assert.InDelta(t, 0.9, data["top_score"], 1e-9)
	results := data["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "Cats purr.", results[0].(map[string]interface{})["text"])
	mockSvc.AssertExpectations(t)
}

func TestQAHandler_Search_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{"k":2}`},
		{"negative k", `{"query":"cats","k":-1}`},
		{"threshold above one", `{"query":"cats","threshold":1.5}`},
		{"threshold below minus one", `{"query":"cats","threshold":-2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewQAHandler(new(MockQAService))
			w := httptest.NewRecorder()
			handler.Search(w, postJSON("/search", tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestQAHandler_Search_IndexNotLoaded(t *testing.T) {
	mockSvc := new(MockQAService)
	handler := NewQAHandler(mockSvc)

	mockSvc.On("Search", mock.Anything, "cats", 0, (*float64)(nil)).Return(nil, domain.ErrIndexNotLoaded)

	w := httptest.NewRecorder()
	handler.Search(w, postJSON("/search", `{"query":"cats"}`))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAudioHandler_Search_Success(t *testing.T) {
	mockSvc := new(MockAudioService)
	handler := NewAudioHandler(mockSvc, audio.NewResolver(t.TempDir()))

	mockSvc.On("Search", mock.Anything, "stars", 0).Return(&service.AudioResult{
		Best: service.AudioHit{OriginalFile: "talk1.wav", ChunkID: 4, StartTime: 12.5, EndTime: 18, Score: 0.8, ChunkName: "talk1_chunk_4.wav"},
	}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, postJSON("/audio/search", `{"query":"stars"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	best := data["best"].(map[string]interface{})
	assert.Equal(t, "talk1_chunk_4.wav", best["chunk_name"])
	assert.Equal(t, 12.5, best["start_time"])
}

func TestAudioHandler_Search_ChunkMissing(t *testing.T) {
	mockSvc := new(MockAudioService)
	handler := NewAudioHandler(mockSvc, audio.NewResolver(t.TempDir()))

	mockSvc.On("Search", mock.Anything, "stars", 3).Return(nil,
		domain.NewDomainError(domain.ErrCodeChunkNotFound, "audio chunk not found at chunks/talk1_chunk_4.wav"))

	w := httptest.NewRecorder()
	handler.Search(w, postJSON("/audio/search", `{"query":"stars","k":3}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "chunks/talk1_chunk_4.wav")
}

func serveChunk(handler *AudioHandler, name string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/audio/chunks/{name}", handler.Chunk)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audio/chunks/"+name, nil))
	return w
}

func TestAudioHandler_Chunk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "talk1_chunk_4.wav"), []byte("RIFFdata"), 0o644))
	handler := NewAudioHandler(new(MockAudioService), audio.NewResolver(root))

	w := serveChunk(handler, "talk1_chunk_4.wav")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RIFFdata", w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))

	w = serveChunk(handler, "talk1_chunk_5.wav")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveChunk(handler, "notes.txt")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serveChunk(handler, "talk1_chunk_4.mp3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_Reload(t *testing.T) {
	store, err := index.Build([]domain.Chunk{{ID: 0, Text: "Cats purr.", SourceFile: "a.txt"}}, [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	reloader := new(MockReloader)
	reloader.On("Reload").Return(nil).Once()
	handler := NewAdminHandler(reloader, fixedState{store: store})

	w := httptest.NewRecorder()
	handler.Reload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["text_entries"])
	assert.Equal(t, float64(3), data["text_dimension"])
	assert.Equal(t, false, data["audio_loaded"])
	reloader.AssertExpectations(t)
}

func TestAdminHandler_ReloadFailure(t *testing.T) {
	reloader := new(MockReloader)
	reloader.On("Reload").Return(assert.AnError)
	handler := NewAdminHandler(reloader, fixedState{})

	w := httptest.NewRecorder()
	handler.Reload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "artifact reload failed")
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(fixedState{})

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Artifacts.TextLoaded)
}
