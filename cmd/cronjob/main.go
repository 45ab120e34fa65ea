package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

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
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sweep-stale-sessions', 'report-active-counts', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Playpark Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// The job runner drives expiries through the same engine the server
	// uses. The sink has no subscribers here, so lifecycle events from the
	// sweep are recorded in the store but not fanned out.
	sinks := notify.Fanout{notify.NewRouter(cfg.Timer.SubscriberBuffer)}
	expirySched := scheduler.New(cfg.Timer, sinks)
	rentalSvc := service.NewRentalService(
		store.SessionRepository,
		store.GameRepository,
		store.BranchRepository,
		expirySched,
		sinks,
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.SessionRepository, rentalSvc, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	jobCron := jobs.NewCron(jobRunner)

	// Start scheduler
	jobCron.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	jobCron.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "sweep-stale-sessions":
		jobRunner.SweepStaleActiveSessions()
	case "report-active-counts":
		jobRunner.ReportActiveCounts()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - sweep-stale-sessions\n")
		fmt.Printf("  - report-active-counts\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
