/*
Package main is the entry point for the Haven chat relay.

It loads configuration, initializes the global logging system, connects the
PostgreSQL session store (running migrations and reconciling sessions
orphaned by a previous process), the shared Redis session store, and the
attachment storage backend, starts the matchmaker, and runs the HTTP server
with graceful shutdown on SIGINT/SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"havenchat/internal/app/identity"
	"havenchat/internal/app/match"
	"havenchat/internal/app/relay"
	"havenchat/internal/app/storage"
	"havenchat/internal/app/store"
	"havenchat/internal/configs"
	"havenchat/internal/handler"
	"havenchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL session store (applies migrations on startup)
	pool, err := store.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	sessionStore := store.NewPGStore(pool)

	// Active rows left over from a previous process have no live connections
	// behind them and can never resume; mark them abandoned before serving.
	abandoned, err := sessionStore.AbandonActiveSessions(ctx)
	if err != nil {
		logx.Fatal(err, "Failed to reconcile orphaned sessions")
	}
	if abandoned > 0 {
		logx.Info("Marked orphaned sessions abandoned", "count", abandoned)
	}

	// Shared Redis session store for identity resolution
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logx.Fatal(err, "Failed to connect to Redis session store")
	}

	directory := identity.NewDirectory(cfg.SessionSecret, identity.NewRedisLookup(redisClient))

	// Attachment storage backend
	storageService, err := storage.NewService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	// Matchmaker and relay
	matchCfg := match.DefaultConfig()
	if cfg.MatchTick > 0 {
		matchCfg.MatchTick = cfg.MatchTick
	}
	if cfg.RebalanceTick > 0 {
		matchCfg.RebalanceTick = cfg.RebalanceTick
	}

	matchmaker := match.New(matchCfg)
	chatRelay := relay.New(matchmaker, sessionStore)
	matchmaker.Subscribe(chatRelay.HandleMatch)
	matchmaker.Start()

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Config:    cfg,
		Relay:     chatRelay,
		Directory: directory,
		Storage:   storageService,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Haven Chat Relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	chatRelay.Shutdown()
	matchmaker.Stop()

	logx.Info("Server gracefully stopped.")
}
