package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/api/handlers"
	"github.com/cloo-solutions/groundqa/internal/api/middleware"
	"github.com/cloo-solutions/groundqa/internal/metrics"
)

type RouterConfig struct {
	Logger       *zap.Logger
	CORSOrigins  []string
	AdminToken   string
	MaxBodyBytes int64

	HealthHandler *handlers.HealthHandler
	QAHandler     *handlers.QAHandler
	AudioHandler  *handlers.AudioHandler
	AdminHandler  *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes == 0 {
		maxBodyBytes = middleware.DefaultMaxBodyBytes
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Sentry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/generate", cfg.QAHandler.Generate)
	r.Post("/search", cfg.QAHandler.Search)

	if cfg.AudioHandler != nil {
		r.Route("/audio", func(r chi.Router) {
			r.Post("/search", cfg.AudioHandler.Search)
			r.Get("/chunks/{name}", cfg.AudioHandler.Chunk)
		})
	}

	if cfg.AdminHandler != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.AdminToken))
			r.Post("/admin/reload", cfg.AdminHandler.Reload)
		})
	}

	return r
}
