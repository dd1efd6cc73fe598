package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filterchat/internal/config"
	"filterchat/internal/database"
	"filterchat/internal/handlers"
	"filterchat/internal/router"
	"filterchat/internal/services"
	"filterchat/internal/websocket"
)

func main() {
	log.Println("🚀 Starting FilterChat Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis (decision cache) ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.ModelName,
		cfg.GeminiConcurrentReqs,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		redisClient,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(geminiService)
	generateHandler := handlers.NewGenerateHandler(geminiService, cfg)
	streamHandler := websocket.NewStreamHandler(geminiService)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(
		chatHandler,
		generateHandler,
		streamHandler,
		cfg.ChatRateLimit,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation turns are slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ FilterChat Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  Chat: http://localhost:%s/api/chat", cfg.Port)
	log.Printf("  WS:   ws://localhost:%s/api/ws/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
