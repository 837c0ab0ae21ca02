package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentSweep)
	log.SetDefault(logger)

	logger.Info("Starting recurring worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The sweep works without a broker; materialized rows are created with
	// sync_status pending and the export worker's scan picks them up.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	sweeper := services.NewRecurringSweeper(repo, publisher, cfg.SweepInterval, nil)

	logger.Info("Sweeping", "interval", cfg.SweepInterval.String(), "db", cfg.SQLiteDBPath)
	if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Sweeper stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Recurring worker stopped gracefully")
}
