package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

func TestInit_NoDSN(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestConfig_SampleRate(t *testing.T) {
	assert.Equal(t, 1.0, Config{}.sampleRate())
	assert.Equal(t, 1.0, Config{Environment: "development"}.sampleRate())
	assert.Equal(t, 0.1, Config{Environment: "production"}.sampleRate())
	assert.Equal(t, 0.5, Config{Environment: "production", SampleRate: 0.5}.sampleRate())
}

func TestReportable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("embed: %w", context.Canceled), false},
		{"invalid input", domain.InvalidInput("query is blank"), false},
		{"missing chunk", fmt.Errorf("resolve: %w", domain.ErrChunkNotFound), false},
		{"unauthorized", domain.ErrInvalidAdminToken, false},
		{"embedding failure", domain.EmbeddingFailure("timeout", errors.New("deadline")), true},
		{"not loaded", domain.ErrIndexNotLoaded, true},
		{"plain error", errors.New("disk full"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reportable(tt.err))
		})
	}
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "retrieval.retrieve", SpanAttributes{Operation: "retrieve", K: 5})
	require.NotNil(t, span)
	assert.NotNil(t, ctx)

	childCtx, child := StartSpan(ctx, "embedding.embed", SpanAttributes{Model: "m", InputCount: 1})
	assert.NotNil(t, childCtx)
	child.SetTag("grounded", "true")
	child.Finish(domain.InvalidInput("blank"))
	span.Finish(errors.New("boom"))
}

func TestSpan_ZeroValueIsSafe(t *testing.T) {
	var s Span
	s.SetTag("k", "v")
	s.Finish(errors.New("boom"))
	assert.NotNil(t, s.Context())
}
