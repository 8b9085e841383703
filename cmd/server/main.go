package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"

	"tearound/internal/config"
	"tearound/internal/database"
	"tearound/internal/handlers"
	"tearound/internal/notify"
	"tearound/internal/repository"
	"tearound/internal/security"
	"tearound/internal/service"
)

const (
	stepDatabase   = "Database connection"
	stepMigrations = "Running migrations"
	stepServices   = "Initializing services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartup(stepDatabase, stepMigrations, stepServices)

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	startup.CompleteStep(stepDatabase)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
	startup.CompleteStep(stepMigrations)

	clk := clock.New()

	// Initialize repositories
	roundRepo := repository.NewRoundRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notification sinks: inbox always, email when SES is configured
	inbox := notify.NewInboxSink(notificationRepo, clk)
	email, err := notify.NewEmailSink(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email notifications: %v", err)
	}
	sinks := notify.Fanout{inbox, email}
	if cfg.Debug {
		sinks = append(sinks, notify.LogSink{})
	}

	// Initialize services
	roundService := service.NewRoundService(roundRepo, sinks, clk, nil, cfg.RoundTimeout)
	roundService.SetDebug(cfg.Debug)

	tokens, err := security.NewTokenVerifier(cfg.JWTSecret, clk)
	if err != nil {
		log.Fatalf("Failed to initialize token verification: %v", err)
	}
	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, clk)

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens, limiter, cfg.Debug)
	roundHandler := handlers.NewRoundHandler(roundService, inbox, clk, cfg.AdvisoryWait)

	startup.CompleteStep(stepServices)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", startup.Healthz(db))
	roundHandler.RegisterRoutes(mux, middleware)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background expiry of rounds nobody opens
	if cfg.SweepInterval > 0 {
		go roundService.RunSweeper(ctx, cfg.SweepInterval)
		log.Printf("Round sweeper running every %s (timeout %s)", cfg.SweepInterval, roundService.Timeout())
	}

	go cleanupRateLimiter(ctx, limiter, clk)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	startup.MarkReady()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// cleanupRateLimiter periodically drops idle rate limit buckets
func cleanupRateLimiter(ctx context.Context, limiter *security.RateLimiter, clk clock.Clock) {
	ticker := clk.Ticker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Sweep(); removed > 0 {
				log.Printf("Removed %d idle rate limit buckets", removed)
			}
		}
	}
}
