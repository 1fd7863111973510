package main

import (
	"booknet/internal/api"        // HTTP handlers and router
	"booknet/internal/config"     // Configuration
	"booknet/internal/db"         // Database connection
	"booknet/internal/events"     // Domain event publisher
	"booknet/internal/mailer"     // Outgoing mail
	"booknet/internal/repository" // Stores
	"booknet/internal/service"    // Flows
	"booknet/internal/upload"     // Upload storage
	"booknet/internal/utils"      // Token service
	"context"                     // Shutdown and Redis contexts
	"errors"                      // Server close detection
	"net/http"                    // HTTP server
	"os"                          // Signals
	"os/signal"                   // Signal handling
	"syscall"                     // SIGTERM
	"time"                        // Timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	config.ConfigureLogger(cfg) // Setup logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	gdb, err := db.Open(cfg.DSN(), !cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr, // Redis server address
		Password: cfg.Redis.Pass, // Redis password
		DB:       cfg.Redis.DB,   // Redis database number
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err) // Test Redis connection
	}

	// Mail transport and asynchronous dispatcher
	transport, err := mailer.New(cfg)
	if err != nil {
		logrus.Fatalf("failed to create mailer: %v", err)
	}
	dispatcher := mailer.NewDispatcher(transport, cfg.Mail.Workers, cfg.Mail.Retries)
	dispatcher.Start(context.WithoutCancel(ctx)) // Workers drain the queue on shutdown

	publisher, err := events.New(cfg.NATS.URL)
	if err != nil {
		logrus.Fatalf("failed to connect to event bus: %v", err)
	}
	defer publisher.Close()

	store, err := upload.NewStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to create upload storage: %v", err)
	}

	// Stores and flows
	users := repository.NewUserRepository(gdb)
	carts := service.NewCartService(
		repository.NewCartRepository(gdb),
		repository.NewGuestCartStore(redisClient, repository.GuestCartTTL),
		publisher,
	)
	tokens := utils.NewTokenService(cfg.JWTSecret)
	auth := service.NewAuthService(users, carts, tokens, mailer.NewNotifier(dispatcher), publisher, cfg.PublicURL())
	profiles := service.NewProfileService(users, store)

	go service.NewResetTokenSweeper(users, cfg.ResetSweepInterval).Run(ctx)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Config:   cfg,
		DB:       gdb,
		Redis:    redisClient,
		Users:    users,
		Tokens:   tokens,
		Auth:     auth,
		Carts:    carts,
		Profiles: profiles,
		Storage:  store,
		Events:   publisher,
	})
	// Set trusted proxies for Gin
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           api.WithCORS(router, cfg.AllowedOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	dispatcher.Shutdown() // Deliver queued mail before exit
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("Server stopped")
}
