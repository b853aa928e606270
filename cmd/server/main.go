// MindCare - supportive chat server
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

	"github.com/NadhiyaSeelam/MindCare-AI/internal/account"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/api"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/classifier"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/config"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/history"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/identity"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/middleware"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/profile"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/store"
	"github.com/NadhiyaSeelam/MindCare-AI/web"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "storage", cfg.StorageBackend)

	// Initialize storage.
	repo, err := store.Open(cfg.StorageBackend, cfg.DataDir, cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Storage health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Storage ready")

	// Initialize the reply model. The keyword rules always back the remote
	// model server so a chat turn never fails for lack of a reply.
	rules, err := classifier.LoadKeyword(cfg.Classifier.RulesPath)
	if err != nil {
		slog.Error("Failed to load classifier rules", "error", err)
		os.Exit(1)
	}
	var predictor classifier.Predictor = rules
	if cfg.Classifier.Addr != "" {
		slog.Info("Connecting to classifier service via gRPC", "address", cfg.Classifier.Addr)

		grpcCfg := classifier.DefaultGrpcClientConfig(cfg.Classifier.Addr)
		grpcCfg.RequestTimeout = cfg.Classifier.Timeout
		grpcClient, err := classifier.NewGrpcClient(grpcCfg, rules, logger)
		if err != nil {
			slog.Warn("Failed to connect to classifier service, using keyword rules", "error", err)
		} else {
			defer grpcClient.Close()
			predictor = grpcClient
		}
	} else {
		slog.Info("Classifier service not configured, using keyword rules")
	}

	// Initialize services.
	svc := chat.NewService(
		account.NewCredentialStore(repo),
		profile.NewStore(repo, nil),
		history.NewStore(repo),
		predictor,
		chat.Config{SerializeUserWrites: cfg.SerializeUserWrites},
	)
	reg := identity.NewRegistry()
	handler := api.NewHandler(svc, reg, cfg.IsDevelopment(), cfg.AllowedOrigins)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	handler.RegisterRoutes(r)

	// Serve embedded chat client.
	r.Handle("/*", web.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket chats are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start TTL worker.
	identity.StartExpiryWorker(ctx, reg, cfg.SessionTTL, cfg.SessionSweepInterval, svc.Expire)
	slog.Info("TTL worker started", "session_ttl", cfg.SessionTTL, "interval", cfg.SessionSweepInterval)

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

	// Flush every live session's buffer before the store closes.
	identity.FinalizeAll(shutdownCtx, reg, svc.Expire)

	slog.Info("Server stopped successfully")
}
