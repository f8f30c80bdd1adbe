package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calebwyatt/dealscout/internal/config"
	"github.com/calebwyatt/dealscout/internal/dedup"
	"github.com/calebwyatt/dealscout/internal/logger"
	"github.com/calebwyatt/dealscout/internal/marketplace"
	"github.com/calebwyatt/dealscout/internal/normalize"
	"github.com/calebwyatt/dealscout/internal/pipeline"
	"github.com/calebwyatt/dealscout/internal/race"
	"github.com/calebwyatt/dealscout/internal/spam"
	"github.com/calebwyatt/dealscout/internal/storage"
	"github.com/calebwyatt/dealscout/internal/telegram"
	"github.com/calebwyatt/dealscout/internal/webhook"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxRaceRows, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	blockedSellers, err := store.LoadBlockedSellers()
	if err != nil {
		logger.Warn("Failed to load blocked sellers: %v", err)
	} else if len(blockedSellers) > 0 {
		logger.Info("Loaded %d blocked sellers", len(blockedSellers))
	}
	blocked := spam.NewBlockedSet(blockedSellers, store.SaveBlockedSellers)

	ledger := dedup.NewLedger(cfg.Pipeline.AlertCooldown)
	if cooldowns, err := store.LoadCooldowns(); err != nil {
		logger.Warn("Failed to load alert cooldowns: %v", err)
	} else if len(cooldowns) > 0 {
		ledger.Restore(cooldowns)
		logger.Info("Restored %d alert cooldown entries", len(cooldowns))
	}

	tracker := race.NewTracker(cfg.Pipeline.RaceWindow, func(rcv race.Received) {
		if err := store.AppendRaceLog(rcv); err != nil {
			logger.Warn("Failed to append race log: %v", err)
		}
	})

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	var notifier pipeline.Notifier
	if telegramClient != nil {
		notifier = telegramClient
	}

	pipeConfig := pipeline.Config{
		ScoreThreshold: cfg.Pipeline.ScoreThreshold,
		AlertCooldown:  cfg.Pipeline.AlertCooldown,
		SpamWindow:     cfg.Pipeline.SpamWindow,
		SpamThreshold:  cfg.Pipeline.SpamThreshold,
	}
	pipe := pipeline.New(pipeConfig, blocked, tracker, ledger, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	var server *webhook.Server
	if cfg.Webhook.Enabled {
		server = webhook.NewServer(cfg.Webhook.ListenAddr, cfg.Webhook.Timeout, pipe)
		go func() {
			if err := server.ListenAndServe(); err != nil {
				logger.Error("Webhook server stopped: %v", err)
				cancel()
			}
		}()
	} else {
		logger.Debug("Webhook receiver disabled")
	}

	if cfg.Marketplace.Enabled {
		runPollLoop(ctx, cfg, pipe, ledger, store, telegramClient)
	} else {
		logger.Info("Direct-API polling disabled, serving webhooks only")
		<-ctx.Done()
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Webhook server shutdown: %v", err)
		}
		shutdownCancel()
	}

	if err := store.SaveCooldowns(ledger.Snapshot()); err != nil {
		logger.Warn("Failed to checkpoint alert cooldowns: %v", err)
	}
	logger.Info("Service stopped")
}

func runPollLoop(
	ctx context.Context,
	cfg *config.Config,
	pipe *pipeline.Pipeline,
	ledger *dedup.Ledger,
	store *storage.Storage,
	telegramClient *telegram.Client,
) {
	client := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)

	logger.Info("Starting poll loop (interval: %v, queries: %v, limit: %d)",
		cfg.Marketplace.PollInterval,
		cfg.Marketplace.Queries,
		cfg.Marketplace.Limit,
	)

	ticker := time.NewTicker(cfg.Marketplace.PollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Poll cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial poll cycle")
	handleCycleResult(runPollCycle(ctx, client, pipe, cfg))

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled poll cycle")
			handleCycleResult(runPollCycle(ctx, client, pipe, cfg))
			if err := store.SaveCooldowns(ledger.Snapshot()); err != nil {
				logger.Warn("Failed to checkpoint alert cooldowns: %v", err)
			}
		}
	}
}

func runPollCycle(ctx context.Context, client *marketplace.Client, pipe *pipeline.Pipeline, cfg *config.Config) error {
	startTime := time.Now()
	logger.Info("Starting poll cycle")

	processed := 0
	alerted := 0
	for _, query := range cfg.Marketplace.Queries {
		logger.Debug("Fetching listings for query %q (limit: %d)", query, cfg.Marketplace.Limit)
		listings, err := client.FetchListings(ctx, query, cfg.Marketplace.Limit)
		if err != nil {
			return fmt.Errorf("failed to fetch listings for %q: %w", query, err)
		}

		for i := range listings {
			raw := listings[i]
			if cfg.Marketplace.FetchDetails {
				if details, err := client.FetchDetails(ctx, raw.ItemID); err != nil {
					logger.Warn("Failed to fetch details for item %s: %v", raw.ItemID, err)
				} else {
					if raw.Description == "" {
						raw.Description = details.Description
					}
					if len(raw.Images) == 0 {
						raw.Images = details.Images
					}
				}
			}

			listing, err := normalize.FromAPI(raw)
			if err != nil {
				logger.Warn("Skipping unnormalizable listing %s: %v", raw.ItemID, err)
				continue
			}

			res := pipe.Process(listing)
			processed++
			if res.Status == pipeline.StatusAlerted {
				alerted++
			}
		}
	}

	logger.Info("Poll cycle completed in %v: %d listings, %d alerts", time.Since(startTime), processed, alerted)
	return nil
}
