package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func TestGenerator_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	g := NewGeneratorWithAPI(mockAPI, GeneratorConfig{Model: "m", Temperature: 0.3, MaxTokens: 100})

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "m" &&
			req.MaxTokens == 100 &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[0].Content == "be brief" &&
			req.Messages[1].Role == openai.ChatMessageRoleUser &&
			req.Messages[1].Content == "what?"
	})).Return(completion("\n  An answer.  \n"), nil)

	out, err := g.Complete(context.Background(), "be brief", "what?")

	require.NoError(t, err)
	assert.Equal(t, "An answer.", out)
	mockAPI.AssertExpectations(t)
}

func TestGenerator_Complete_NoSystem(t *testing.T) {
	mockAPI := new(MockChatAPI)
	g := NewGeneratorWithAPI(mockAPI, GeneratorConfig{})

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return len(req.Messages) == 1 && req.Model == DefaultGenerationModel && req.MaxTokens == DefaultGenerationMaxTokens
	})).Return(completion("ok"), nil)

	out, err := g.Complete(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerator_Complete_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		g := NewGeneratorWithAPI(mockAPI, GeneratorConfig{})
		mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, errors.New("unavailable"))

		_, err := g.Complete(context.Background(), "", "hi")
		assert.True(t, errors.Is(err, domain.ErrGenerationFailure))
	})

	t.Run("no choices", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		g := NewGeneratorWithAPI(mockAPI, GeneratorConfig{})
		mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, nil)

		_, err := g.Complete(context.Background(), "", "hi")
		assert.True(t, errors.Is(err, domain.ErrGenerationFailure))
		assert.ErrorIs(t, err, ErrNoChoices)
	})
}

func TestGenerator_Complete_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3-8b-8192", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "cmpl-1",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: " Cats purr. "},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{APIKey: "gsk", BaseURL: srv.URL + "/openai/v1/", Model: "llama3-8b-8192", Timeout: 5 * time.Second})

	out, err := g.Complete(context.Background(), "system", "question")
	require.NoError(t, err)
	assert.Equal(t, "Cats purr.", out)
}
