package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	chatbot "github.com/yanwarin/hospital-chatbot"
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/handler"
	"github.com/yanwarin/hospital-chatbot/internal/notify"
	"github.com/yanwarin/hospital-chatbot/internal/repository"
	"github.com/yanwarin/hospital-chatbot/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database when configured; without it the session store
	// runs purely in memory.
	var queries *repository.Queries
	if cfg.PersistenceEnabled() {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(chatbot.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		queries = repository.New(pool)
	} else {
		slog.Warn("DATABASE_URL not set, session history is not durable")
	}

	// Initialize services
	alerter := notify.New(cfg.AlertBotToken, cfg.AlertChatID)
	gemini := service.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.FileSearchStore)
	if !gemini.Available() {
		slog.Warn("GEMINI_API_KEY not set, chat will fail and classification falls back to keywords")
	}

	var sessionService *service.SessionService
	if queries != nil {
		sessionService = service.NewSessionService(queries)
	} else {
		sessionService = service.NewSessionService(nil)
	}
	defer sessionService.Close()
	sessionService.SetFallbackHook(func(op string, err error) {
		alerter.Alert("session store fallback: "+op, err)
	})

	recommendService := service.NewRecommendService(gemini)
	chatService := service.NewChatService(sessionService, recommendService, gemini, alerter)
	documentService := service.NewDocumentService(gemini)

	// Initialize handler and routes
	h := handler.New(handler.Deps{
		Cfg:       cfg,
		Chat:      chatService,
		Sessions:  sessionService,
		Documents: documentService,
	})

	webFS, err := fs.Sub(chatbot.WebFS, "web")
	if err != nil {
		slog.Error("failed to load embedded web assets", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Router(webFS),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port, "persistence", cfg.PersistenceEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}
