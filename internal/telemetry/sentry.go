// Package telemetry wraps Sentry error reporting and tracing for the query
// and index-build paths.
package telemetry

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

const serviceName = "groundqad"

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN         string
	Environment string
	// SampleRate of 0 means 1.0 in development and 0.1 elsewhere.
	SampleRate float64
	Debug      bool
	Logger     *zap.Logger
}

func (c Config) sampleRate() float64 {
	switch {
	case c.SampleRate > 0:
		return c.SampleRate
	case c.Environment == "" || c.Environment == "development":
		return 1.0
	default:
		return 0.1
	}
}

// unsampledRoutes are polled by probes and scrapers.
var unsampledRoutes = []string{"/health", "/metrics"}

// Init initializes Sentry and returns a function that flushes pending
// events. An empty DSN disables reporting.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	rate := cfg.sampleRate()

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: rate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			for _, route := range unsampledRoutes {
				if strings.HasSuffix(ctx.Span.Name, " "+route) {
					return 0
				}
			}
			var emptySpanID sentry.SpanID
			if ctx.Span.ParentSpanID != emptySpanID {
				if ctx.Span.Sampled.Bool() {
					return 1.0
				}
				return 0
			}
			return rate
		}),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("sentry initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", rate))
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// Reportable reports whether err is worth an error event. Bad input, missing
// chunks and auth failures are caller mistakes and are left out.
func Reportable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case domain.ErrCodeValidation, domain.ErrCodeChunkNotFound, domain.ErrCodeUnauthorized:
			return false
		}
	}
	return true
}

// SpanAttributes are the tags set on query-path and build spans.
type SpanAttributes struct {
	Operation  string
	Model      string
	Artifact   string
	K          int
	InputCount int
}

// Span wraps sentry.Span. The zero value is a no-op.
type Span struct {
	inner *sentry.Span
}

func (s *Span) SetTag(key, value string) {
	if s.inner != nil {
		s.inner.SetTag(key, value)
	}
}

// Finish ends the span. A reportable err marks it failed and is captured;
// other errors only set the span status.
func (s *Span) Finish(err error) {
	if s.inner == nil {
		return
	}
	switch {
	case err == nil:
		s.inner.Status = sentry.SpanStatusOK
	case Reportable(err):
		s.inner.Status = sentry.SpanStatusInternalError
		CaptureError(s.inner.Context(), err)
	default:
		s.inner.Status = sentry.SpanStatusInvalidArgument
	}
	s.inner.Finish()
}

// Context returns the span's context.
func (s *Span) Context() context.Context {
	if s.inner != nil {
		return s.inner.Context()
	}
	return context.Background()
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.Model != "" {
		span.SetTag("model", attrs.Model)
	}
	if attrs.Artifact != "" {
		span.SetTag("artifact", attrs.Artifact)
	}
	if attrs.K > 0 {
		span.SetTag("k", strconv.Itoa(attrs.K))
	}
	if attrs.InputCount > 0 {
		span.SetData("input_count", attrs.InputCount)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}

	return span.Context(), &Span{inner: span}
}

// CaptureError sends err to the hub bound to ctx, or the global hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
