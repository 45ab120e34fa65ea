package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	api "playpark-backend/internal/api/http"
	"playpark-backend/internal/config"
	"playpark-backend/internal/jobs"
	"playpark-backend/internal/logger"
	"playpark-backend/internal/notify"
	"playpark-backend/internal/repository/postgres"
	"playpark-backend/internal/scheduler"
	"playpark-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Playpark Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Event Sinks
	router := notify.NewRouter(cfg.Timer.SubscriberBuffer)
	sinks := notify.Fanout{router}

	if cfg.Email.SendGridAPIKey != "" {
		logger.Info("Email escalation enabled", "from", cfg.Email.FromEmail)
		sinks = append(sinks, notify.NewEmailAlerter(
			cfg.Email.SendGridAPIKey,
			cfg.Email.FromEmail,
			cfg.Email.FromName,
			store.BranchRepository,
		))
	}

	if cfg.Push.CredentialsFile != "" {
		fcm, err := notify.NewFCMSink(context.Background(), cfg.Push.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM push", "error", err)
			log.Fatalf("Failed to initialize FCM push: %v", err)
		}
		logger.Info("FCM push enabled")
		sinks = append(sinks, fcm)
	}

	// Initialize Scheduler and Engine
	expirySched := scheduler.New(cfg.Timer, sinks)
	rentalSvc := service.NewRentalService(
		store.SessionRepository,
		store.GameRepository,
		store.BranchRepository,
		expirySched,
		sinks,
	)

	expirySched.Start(rentalSvc.HandleExpiry)
	defer expirySched.Stop()

	// Rebuild deadlines for sessions that were active before restart
	if err := rentalSvc.Restore(context.Background()); err != nil {
		logger.Error("Failed to rebuild expiration schedule", "error", err)
		log.Fatalf("Failed to rebuild expiration schedule: %v", err)
	}

	// Initialize Maintenance Jobs
	jobRunner := jobs.NewJobRunner(store.SessionRepository, rentalSvc, cfg)
	jobCron := jobs.NewCron(jobRunner)
	jobCron.Start()
	defer jobCron.Stop()

	// Initialize HTTP API
	r := mux.NewRouter()
	api.NewSessionHandler(rentalSvc).Register(r)
	api.NewEventsHandler(router).Register(r)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event streams stay open
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Shutdown complete")
}
