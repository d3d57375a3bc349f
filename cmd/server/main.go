package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notify-service/internal/adapters/kafka"
	"notify-service/internal/api/routes"
	"notify-service/internal/auth"
	"notify-service/internal/config"
	"notify-service/internal/database"
	"notify-service/internal/handshake"
	"notify-service/internal/notify"
	"notify-service/internal/services"
	"notify-service/internal/websocket"
)

func main() {
	// Load configuration (.env is optional, env vars win)
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting notification server")

	// Presence tracking is optional; the registry works without Redis
	var presence *services.PresenceService
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisConnection(&cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		presence = services.NewPresenceService(redisClient)
	}

	// Authentication chain: verifier -> resolver -> gatekeeper
	verifier := auth.NewVerifier(cfg.JWT.Secret)
	resolver := auth.NewJWTResolver(verifier)
	gatekeeperOpts := []handshake.Option{
		handshake.WithAllowAnonymous(cfg.JWT.AllowAnonymous),
	}
	if len(cfg.WebSocket.AllowedOrigins) > 0 {
		gatekeeperOpts = append(gatekeeperOpts,
			handshake.WithOriginChecker(handshake.OriginAllowList(cfg.WebSocket.AllowedOrigins)))
	}
	gatekeeper := handshake.NewGatekeeper(resolver, gatekeeperOpts...)

	// Session registry and dispatcher
	var registryOpts []websocket.RegistryOption
	if presence != nil {
		registryOpts = append(registryOpts, websocket.WithPresence(presence))
	}
	registry := websocket.NewRegistry(registryOpts...)
	dispatcher := notify.NewDispatcher(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Kafka notification source
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka, dispatcher)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("Kafka consumer stopped", "error", err)
			}
		}()
	}

	// Initialize router with all dependencies
	router := routes.NewRouter(registry, gatekeeper, dispatcher, presence, verifier, cfg)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Drop live sessions before stopping the listener
	registry.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
