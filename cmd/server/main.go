package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clarity-backend/internal/config"
	"clarity-backend/internal/handlers"
	"clarity-backend/internal/logging"
	"clarity-backend/internal/router"
	"clarity-backend/internal/services"
	"clarity-backend/internal/websocket"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}

	// ──── Step 2: Build Logger ────
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Clarity relay",
		zap.String("env", cfg.Env),
		zap.String("model", cfg.GeminiModel),
		zap.Int("concurrent_requests", cfg.GeminiConcurrentReqs),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout),
	)
	if cfg.IsProduction() && cfg.FrontendURL == "*" {
		logger.Warn("FRONTEND_URL is unset; CORS allows any origin")
	}

	// ──── Step 3: Initialize Gemini Client ────
	gemini, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, logger)
	if err != nil {
		return fmt.Errorf("initializing gemini client: %w", err)
	}
	defer gemini.Close()

	// ──── Step 4: Handlers & Router ────
	chatHandler := handlers.NewChatHandler(gemini, logger, cfg.UpstreamTimeout)
	summaryHandler := handlers.NewSummaryHandler(gemini, logger, cfg.UpstreamTimeout)
	wsHub := websocket.NewHub(gemini, logger, cfg.UpstreamTimeout)

	r := router.New(chatHandler, summaryHandler, wsHub, logger, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// ──── Step 5: Serve until signalled ────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Clarity relay ready", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
