package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/aajay101/investment-tracker-beta-v1/internal/api"
	"github.com/aajay101/investment-tracker-beta-v1/internal/config"
	"github.com/aajay101/investment-tracker-beta-v1/internal/database"
	"github.com/aajay101/investment-tracker-beta-v1/internal/history"
	"github.com/aajay101/investment-tracker-beta-v1/internal/kafka"
	"github.com/aajay101/investment-tracker-beta-v1/internal/marketdata"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	// Price cache: Redis when reachable, in-process otherwise
	var priceCache marketdata.PriceCache
	var cachePinger api.CachePinger
	redisCache, err := marketdata.NewRedisCache(cfg.Redis, cfg.MarketData.CacheBucket)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (using in-process cache)", err)
		priceCache = marketdata.NewMemoryCache()
	} else {
		defer redisCache.Close()
		priceCache = redisCache
		cachePinger = redisCache
		log.Println("Connected to Redis cache")
	}

	// Market data provider
	provider := marketdata.New(cfg.MarketData, priceCache)

	// Create Kafka producer
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	defer producer.Close()
	log.Printf("Kafka producer initialized (brokers: %v)", cfg.Kafka.Brokers)

	// Daily snapshotter
	snapshotter := history.NewSnapshotter(db, producer)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start Kafka consumer for position snapshots
	positionsConsumer := kafka.NewPositionsConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PositionsTopic,
		cfg.Kafka.ConsumerGroup,
		db,
	)
	go func() {
		log.Printf("Starting Kafka positions consumer for topic: %s (group: %s-positions)",
			cfg.Kafka.PositionsTopic, cfg.Kafka.ConsumerGroup)
		if err := positionsConsumer.Start(ctx); err != nil {
			log.Printf("Kafka positions consumer error: %v", err)
		}
	}()

	// Set up HTTP handler and routes
	handler := api.NewHandler(db, provider, snapshotter, producer, cachePinger)
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop the Kafka consumer
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := positionsConsumer.Close(); err != nil {
		log.Printf("Error closing Kafka positions consumer: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(databaseUrl string) error {
	m, err := migrate.New("file://./db/migrations", databaseUrl)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err == migrate.ErrNoChange {
		log.Println("No migrations to apply; database is up to date.")
	}

	return nil
}
