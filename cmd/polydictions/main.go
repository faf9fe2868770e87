package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/polydictions/bot/internal/config"
	"github.com/polydictions/bot/internal/dedup"
	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/notifier"
	"github.com/polydictions/bot/internal/polymarket"
	"github.com/polydictions/bot/internal/registry"
	"github.com/polydictions/bot/internal/storage"
	"github.com/polydictions/bot/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// A local .env can carry POLYDICTIONS_TELEGRAM_BOT_TOKEN; absence is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}

	reg := registry.Load(store)

	polyClient := polymarket.NewClient(
		cfg.Polymarket.GammaAPIURL,
		cfg.Polymarket.SiteURL,
		cfg.Polymarket.Timeout,
		polymarket.ContextConfig{
			Timeout:        cfg.Context.Timeout,
			MaxRetries:     cfg.Context.MaxRetries,
			RetryDelay:     cfg.Context.RetryDelay,
			MinResponseLen: cfg.Context.MinResponseLen,
		},
	)

	engine := dedup.New(polyClient, store, dedup.Config{
		BootstrapLimit:    cfg.Polymarket.BootstrapLimit,
		RefreshLimit:      cfg.Polymarket.RefreshLimit,
		PollLimit:         cfg.Polymarket.PollLimit,
		PreexistingVolume: cfg.Dedup.PreexistingVolume,
		SuppressVolume:    cfg.Dedup.SuppressVolume,
	})

	bot, err := telegram.NewBot(cfg.Telegram.BotToken, reg, polyClient, cfg.Polymarket.SiteURL)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram bot: %v", err)
	}

	fanout := notifier.New(bot, reg, cfg.Polymarket.SiteURL, cfg.Notifier.SendDelay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	bot.ListenForCommands(ctx)

	if err := engine.Bootstrap(ctx); err != nil {
		// Bootstrap only seeds the seen set; polling can still proceed.
		logger.Error("Bootstrap failed: %v", err)
	}

	logger.Info("Starting event monitoring (interval: %v, seen events: %d)",
		cfg.Polymarket.PollInterval, engine.SeenCount())

	ticker := time.NewTicker(cfg.Polymarket.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return
		case <-ticker.C:
			runPollCycle(ctx, engine, fanout)
		}
	}
}

func runPollCycle(ctx context.Context, engine *dedup.Engine, fanout *notifier.Notifier) {
	start := time.Now()

	fresh, err := engine.Tick(ctx)
	if err != nil {
		logger.Error("Poll cycle failed: %v", err)
		return
	}
	for i := range fresh {
		fanout.Notify(ctx, &fresh[i])
	}

	logger.Debug("Poll cycle completed in %v", time.Since(start))
}
