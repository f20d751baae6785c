// Ralphd - Guided PRD Builder Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/snail3d/ralphd/internal/api"
	"github.com/snail3d/ralphd/internal/chat"
	"github.com/snail3d/ralphd/internal/config"
	"github.com/snail3d/ralphd/internal/engine"
	"github.com/snail3d/ralphd/internal/middleware"
	"github.com/snail3d/ralphd/internal/store"
	"github.com/snail3d/ralphd/internal/translate"
	"github.com/snail3d/ralphd/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// PRD generation backend.
	generator := engine.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.GenerateTimeout, logger)
	slog.Info("PRD engine initialized", "url", cfg.OllamaURL, "model", cfg.OllamaModel)

	// Translation is optional; without an API key conversations stay in
	// English.
	var translator translate.Translator = translate.Noop{}
	var detector translate.Detector = translate.Noop{}
	if cfg.GroqAPIKey != "" {
		groq := translate.NewGroqClient(cfg.GroqAPIKey, logger)
		translator = groq
		detector = groq
		slog.Info("Translation enabled")
	} else {
		slog.Info("Translation disabled (GROQ_API_KEY not set)")
	}

	deps := chat.Deps{
		Engine:     generator,
		Translator: translator,
		Detector:   detector,
		Logger:     logger,
	}

	registry := chat.NewRegistry(func(sessionID string) *chat.Controller {
		return chat.New(sessionID, deps)
	}, cfg.SessionTTL, nil, logger)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, registry, deps)
	chatHandler := api.NewChatHandler(baseHandler)
	conversationHandler := api.NewConversationHandler(baseHandler)
	prdHandler := api.NewPRDHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	chatHandler.RegisterRoutes(r)
	conversationHandler.RegisterRoutes(r)
	prdHandler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the session eviction worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry.StartEvictionWorker(ctx, cfg.EvictionInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
