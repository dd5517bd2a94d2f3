package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

const (
	DefaultGenerationModel       = "llama3-8b-8192"
	DefaultGenerationTemperature = 0.3
	DefaultGenerationMaxTokens   = 500
	DefaultGenerateTimeout       = 60 * time.Second
)

// ErrNoChoices is returned when a chat completion has no choices
var ErrNoChoices = errors.New("completion returned no choices")

// ChatAPI is the subset of the go-openai client used for generation.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Generator produces text from a system instruction and a prompt through an
// OpenAI-compatible chat completions endpoint.
type Generator struct {
	api         ChatAPI
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewGenerator creates a Generator from configuration.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return NewGeneratorWithAPI(newClient(cfg.APIKey, cfg.BaseURL), cfg)
}

// NewGeneratorWithAPI creates a Generator on top of an arbitrary ChatAPI.
func NewGeneratorWithAPI(api ChatAPI, cfg GeneratorConfig) *Generator {
	g := &Generator{
		api:         api,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
	if g.model == "" {
		g.model = DefaultGenerationModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultGenerationMaxTokens
	}
	if g.timeout <= 0 {
		g.timeout = DefaultGenerateTimeout
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Complete sends system and prompt as a two-message chat and returns the
// first choice, trimmed.
func (g *Generator) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.GenerationFailure("completion timed out", err)
		}
		return "", domain.GenerationFailure("failed to create completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.GenerationFailure("failed to create completion", ErrNoChoices)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
