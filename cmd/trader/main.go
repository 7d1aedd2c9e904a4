package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-trade-bot-go/internal/alerts"
	"dex-trade-bot-go/internal/config"
	"dex-trade-bot-go/internal/database"
	"dex-trade-bot-go/internal/logger"
	"dex-trade-bot-go/internal/pricing"
	"dex-trade-bot-go/internal/store"
	"dex-trade-bot-go/internal/trader"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Wallet key and API keys come from the environment in development.
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	st := store.New(db)

	// Shared collaborators
	gecko := pricing.NewGecko(&cfg.Pricing, log)
	clients := trader.NewClientFactory(&cfg, gecko, log)
	dispatcher := alerts.NewTelegram(&cfg.Telegram, log)

	executor := trader.NewExecutor(log, &cfg, st, clients, dispatcher)

	apiServer := trader.NewAPIServer(&cfg, st, executor, clients, gecko, log)
	apiServer.Start()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}

	log.Info("Bot has been shut down.")
}
