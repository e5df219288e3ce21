// SQLQuest - Interactive SQL Course Server
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

	"github.com/avaldez/sqlquest/internal/agent"
	"github.com/avaldez/sqlquest/internal/api"
	"github.com/avaldez/sqlquest/internal/catalog"
	"github.com/avaldez/sqlquest/internal/config"
	"github.com/avaldez/sqlquest/internal/course"
	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/middleware"
	"github.com/avaldez/sqlquest/internal/store"
	"github.com/avaldez/sqlquest/internal/ws"
	"github.com/avaldez/sqlquest/web"
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
	repo, err := store.NewSQLite(cfg.AppDBPath)
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
	slog.Info("Application database connected")

	courseDB, err := course.Open(cfg.CourseDBPath)
	if err != nil {
		slog.Error("Failed to initialize course database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := courseDB.Close(); closeErr != nil {
			slog.Error("Failed to close course database", "error", closeErr)
		}
	}()
	slog.Info("Course database ready", "path", cfg.CourseDBPath)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load challenge catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Challenge catalog loaded", "challenges", cat.Total(), "lessons", len(cat.Lessons))

	// Initialize the assistant. Without an API key it still answers, but
	// with the offline fallback message instead of the hosted model.
	var agentSvc *agent.Service
	if cfg.AIEnabled() {
		embedder, err := agent.NewGenAIEmbedder(context.Background(), cfg.Agent.APIKey, cfg.Agent.EmbeddingModel)
		if err != nil {
			slog.Error("Failed to initialize embedder", "error", err)
			os.Exit(1)
		}
		retriever := agent.NewRetriever(repo, embedder, logger)

		seedCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := retriever.EnsureSeeded(seedCtx); err != nil {
			slog.Warn("Failed to seed knowledge base, retrieval will be degraded", "error", err)
		}
		cancel()

		llm := agent.NewGeminiClient(cfg.Agent.APIKey, cfg.Agent.ChatModel)
		agentSvc = agent.NewService(repo, retriever, llm, agent.ServiceConfig{
			TopK:         cfg.Agent.RetrievalTopK,
			HistoryLimit: cfg.Agent.ChatHistoryLimit,
		}, logger)
		slog.Info("Assistant initialized", "chat_model", cfg.Agent.ChatModel, "embedding_model", cfg.Agent.EmbeddingModel)
	} else {
		agentSvc = agent.NewService(repo, nil, nil, agent.ServiceConfig{
			TopK:         cfg.Agent.RetrievalTopK,
			HistoryLimit: cfg.Agent.ChatHistoryLimit,
		}, logger)
		slog.Info("AI features disabled (GEMINI_API_KEY not set), assistant in offline mode")
	}

	// Initialize handlers.
	apiHandler := api.NewHandler(repo, courseDB, cat, agentSvc)
	healthHandler := api.NewHealthHandler(repo)
	chatWS := ws.NewChatHandler(repo, agentSvc, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)
	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", chatWS.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket chat sessions stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
