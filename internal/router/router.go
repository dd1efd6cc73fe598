package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"filterchat/internal/handlers"
	"filterchat/internal/middleware"
	"filterchat/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	generateHandler *handlers.GenerateHandler,
	streamHandler *websocket.StreamHandler,
	chatRateLimit int,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Chat rate limiter (per IP per minute)
	chatLimiter := middleware.NewRateLimiter(chatRateLimit, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Effective generation settings
	r.Get("/config", generateHandler.Config)

	r.Route("/api", func(r chi.Router) {

		// ──── Chat Routes ────
		r.Group(func(r chi.Router) {
			r.Use(chatLimiter.Middleware)
			r.Post("/chat", chatHandler.HandleChat)
			r.Post("/generate", generateHandler.Generate)
		})

		// ──── WebSocket ────
		r.Get("/ws/chat", streamHandler.HandleChatStream)
	})

	return r
}
