package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"clarity-backend/internal/handlers"
	"clarity-backend/internal/middleware"
	"clarity-backend/internal/web"
	"clarity-backend/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	summaryHandler *handlers.SummaryHandler,
	wsHub *websocket.Hub,
	logger *zap.Logger,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", handlers.Health)

	// ──── Chat Routes ────
	r.Post("/chat", chatHandler.Chat)
	r.Get("/chat/stream", wsHub.HandleWebSocket)
	r.Post("/summarize", summaryHandler.Summarize)
	r.Get("/personalities", handlers.Personalities)

	// ──── Browser UI ────
	r.Handle("/*", web.Handler())

	return r
}
