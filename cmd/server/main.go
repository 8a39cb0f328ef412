package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/fisch192/beefactory/internal/config"
	"github.com/fisch192/beefactory/internal/database"
	postgresrepo "github.com/fisch192/beefactory/internal/repository/postgres"
	"github.com/fisch192/beefactory/internal/service"
	"github.com/fisch192/beefactory/internal/transport/http/handlers"
	"github.com/fisch192/beefactory/internal/transport/http/middleware"
	"github.com/fisch192/beefactory/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Repositories
	channelRepo := postgresrepo.NewChannelRepo(pool)
	topicRepo := postgresrepo.NewTopicRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Service - jedini writer, oba transporta idu kroz njega
	channelService := service.NewChannelService(channelRepo, topicRepo, messageRepo, service.RateLimits{
		Window:   cfg.RateLimitWindow,
		Channels: cfg.ChannelRateLimit,
		Topics:   cfg.TopicRateLimit,
		Messages: cfg.MessageRateLimit,
	})

	// Handlers
	channelHandler := handlers.NewChannelHandler(channelService)
	messageHandler := handlers.NewMessageHandler(channelService)

	// WebSocket gateway
	hub := ws.NewHub()

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Channels
	mux.Handle("POST /api/v1/channels", auth(http.HandlerFunc(channelHandler.Create)))
	mux.HandleFunc("GET /api/v1/channels", channelHandler.List)
	mux.HandleFunc("GET /api/v1/channels/{id}", channelHandler.Get)
	mux.Handle("DELETE /api/v1/channels/{id}", auth(http.HandlerFunc(channelHandler.Delete)))

	// Topics
	mux.Handle("POST /api/v1/channels/{id}/topics", auth(http.HandlerFunc(channelHandler.CreateTopic)))
	mux.HandleFunc("GET /api/v1/channels/{id}/topics", channelHandler.ListTopics)

	// Messages
	mux.HandleFunc("GET /api/v1/topics/{id}/messages", messageHandler.List)
	mux.Handle("POST /api/v1/topics/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Live chat
	mux.HandleFunc("GET /ws/chat", ws.ServeWS(hub, channelService, cfg.JWTSecret))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
