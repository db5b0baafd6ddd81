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

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/threatsim/threatsim/internal/config"
	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/handlers"
	"github.com/threatsim/threatsim/internal/metrics"
	"github.com/threatsim/threatsim/internal/middleware"
	"github.com/threatsim/threatsim/internal/simdata"
	"github.com/threatsim/threatsim/internal/stream"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ThreatSim API...")

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Seed the detection catalog on first run
	if err := database.InitializeDefaults(); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	db := database.GetDB()

	// Regenerate the simulation dataset if requested
	if cfg.SeedOnStart {
		generator := simdata.NewGenerator(db)
		if err := generator.Reset(); err != nil {
			log.Fatalf("Failed to reset simulation data: %v", err)
		}
		spec := simdata.DefaultSeedSpec()
		spec.BaselineDays = cfg.SeedDays
		if _, err := generator.Seed(spec); err != nil {
			log.Fatalf("Failed to seed simulation data: %v", err)
		}
	}

	// Live update hub for dashboard clients
	hub := stream.NewHub()

	// Set up HTTP server routes
	httpHandler := handlers.NewHTTPHandler()
	apiHandler := handlers.NewAPIHandler(db, hub)

	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	hub.SetupRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	// Wrap all routes with request IDs, metrics and CORS
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORSOrigins...)
	handler := corsMiddleware.Wrap(
		middleware.RequestIDMiddleware(
			metrics.InstrumentHandler("api", mux)))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Health check endpoint: http://localhost:%d/api/v1/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api/v1", cfg.HTTPPort)
	log.Printf("Live stream endpoint: ws://localhost:%d/ws/incidents", cfg.HTTPPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}
