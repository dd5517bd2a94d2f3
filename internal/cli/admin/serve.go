package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/api/handlers"
	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/jobs"
	"github.com/cloo-solutions/groundqa/internal/server"
	"github.com/cloo-solutions/groundqa/internal/service"
	"github.com/cloo-solutions/groundqa/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Load the index artifacts and serve question answering and audio search over HTTP",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Debug:       cfg.Debug,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if portFlag, _ := cmd.Flags().GetString("port"); cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	generator := newGenerator(cfg)

	artifacts := service.Artifacts{IndexDir: cfg.IndexDir}
	if cfg.HasAudio() {
		artifacts.AudioTable = cfg.AudioTable
	}
	holder := service.NewHolder(artifacts, logger)
	if err := holder.Load(); err != nil {
		if service.Missing(err) {
			logger.Warn("artifacts not found, serving without them until reload", zap.Error(err))
		} else {
			logger.Error("failed to load artifacts", zap.Error(err))
		}
	}

	qaSvc := service.NewQAService(holder, embedder, generator, service.QAConfig{
		TopK:      cfg.TopK,
		Threshold: cfg.RelevanceThreshold,
	}, logger)

	var audioHandler *handlers.AudioHandler
	if cfg.HasAudio() {
		resolver := audio.NewResolver(cfg.AudioChunkRoot)
		audioSvc := service.NewAudioService(holder, embedder, resolver, cfg.AudioTopK, logger)
		if cfg.HasS3() {
			mirror, err := newMirror(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			audioSvc.WithSigner(mirror)
			logger.Info("presigned chunk URLs enabled", zap.String("bucket", cfg.S3Bucket))
		}
		audioHandler = handlers.NewAudioHandler(audioSvc, resolver)
	}

	reloader := jobs.NewReloadProcessor(holder, artifacts.Paths(), logger)
	var reloadWorker *jobs.Worker
	if cfg.ReloadInterval > 0 {
		reloadWorker = jobs.NewWorker(reloader, cfg.ReloadInterval, logger)
		go reloadWorker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
		AdminToken:    cfg.AdminToken,
		HealthHandler: handlers.NewHealthHandler(holder),
		QAHandler:     handlers.NewQAHandler(qaSvc),
		AudioHandler:  audioHandler,
		AdminHandler:  handlers.NewAdminHandler(reloader, holder),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("generation_model", generator.Model()),
			zap.Bool("audio", cfg.HasAudio()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for waiting := true; waiting; {
		select {
		case <-hup:
			logger.Info("SIGHUP received, reloading artifacts")
			if err := reloader.Reload(); err != nil {
				logger.Error("artifact reload failed", zap.Error(err))
			}
		case <-quit:
			waiting = false
		}
	}
	logger.Info("shutting down")

	if reloadWorker != nil {
		reloadWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
