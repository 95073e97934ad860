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

	"ichimoku-monitor/config"
	"ichimoku-monitor/internal/ai/llm"
	"ichimoku-monitor/internal/api"
	"ichimoku-monitor/internal/logging"
	"ichimoku-monitor/internal/market"
	"ichimoku-monitor/internal/metrics"
	"ichimoku-monitor/internal/monitor"
	"ichimoku-monitor/internal/notification"
	"ichimoku-monitor/internal/state"
	"ichimoku-monitor/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	generateConfig := flag.Bool("generate-config", false, "write a sample configuration file and exit")
	runOnce := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	if *generateConfig {
		if err := config.GenerateSampleConfig(*configPath); err != nil {
			log.Fatalf("Failed to write sample config: %v", err)
		}
		fmt.Printf("Sample configuration written to %s\n", *configPath)
		return
	}

	// Load configuration. Unknown predicate or strategy names abort here.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("strategy", cfg.Monitoring.Strategy).
		Strs("symbols", cfg.Monitoring.Symbols).
		Str("timeframe", cfg.Monitoring.Timeframe).
		Msg("Ichimoku monitor starting")

	// Strategy detector
	active := cfg.ActiveStrategy()
	detector, err := strategy.NewDetector(cfg.Monitoring.Strategy, active.Parameters, active.Rules, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build strategy detector")
	}

	// Market data fetcher
	fetcher := market.NewFetcher(market.FetcherConfig{
		BaseURL:        cfg.Fetch.BaseURL,
		MaxRetries:     uint64(cfg.Fetch.MaxRetries),
		InitialBackoff: time.Duration(cfg.Fetch.InitialBackoffSec) * time.Second,
	}, logger)

	// Signal state
	store := state.NewStore(cfg.State.FilePath, logger)
	tracker := state.NewTracker(store, logger)

	// Notification sinks
	notifyManager := notification.NewManager(logger)
	if cfg.Notification.Enabled {
		if cfg.Notification.Telegram.Enabled {
			notifyManager.AddNotifier(notification.NewTelegramNotifier(notification.TelegramConfig{
				BotToken: cfg.Notification.Telegram.BotToken,
				ChatID:   cfg.Notification.Telegram.ChatID,
				Enabled:  cfg.Notification.Telegram.Enabled,
			}))
			logger.Info().Msg("Telegram notifications enabled")
		}
		if cfg.Notification.Discord.Enabled {
			notifyManager.AddNotifier(notification.NewDiscordNotifier(notification.DiscordConfig{
				WebhookURL: cfg.Notification.Discord.WebhookURL,
				Enabled:    cfg.Notification.Discord.Enabled,
			}))
			logger.Info().Msg("Discord notifications enabled")
		}
	}

	// LLM narrative
	var narrative *llm.NarrativeGenerator
	if cfg.AI.Enabled {
		client := llm.NewClient(&llm.ClientConfig{
			Provider:    llm.Provider(cfg.AI.Provider),
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     time.Duration(cfg.AI.TimeoutSec) * time.Second,
		})
		if client.IsConfigured() {
			narrative = llm.NewNarrativeGenerator(client, logger)
			logger.Info().Str("provider", cfg.AI.Provider).Msg("LLM narratives enabled")
		} else {
			logger.Warn().Msg("LLM enabled but no API key set, narratives disabled")
		}
	}

	// Metrics and monitor
	m := metrics.New()
	notifyManager.OnResult = func(sink string, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.NotificationsTotal.WithLabelValues(sink, status).Inc()
	}

	mon := monitor.New(monitor.Config{
		Symbols:      cfg.Monitoring.Symbols,
		Timeframe:    cfg.Monitoring.Timeframe,
		DataPoints:   cfg.Monitoring.DataPoints,
		FetchTimeout: time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
	}, fetcher, detector, tracker, notifyManager, narrative, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Notification.TestOnStartup {
		if err := notifyManager.SendTest(cfg.Monitoring.Strategy, cfg.Monitoring.Symbols); err != nil {
			logger.Warn().Err(err).Msg("Startup test notification failed")
		}
	}

	if *runOnce {
		mon.RunCycle(ctx)
		return
	}

	// Status API
	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(cfg.Server.Host, cfg.Server.Port, mon, detector, store, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Fatal().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	// Scheduler
	interval, err := cfg.Monitoring.Interval()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid timeframe")
	}
	scheduler := monitor.NewScheduler(interval, logger)

	if cfg.Monitoring.RunOnStartup {
		mon.RunCycle(ctx)
	}

	go func() {
		if err := scheduler.Run(ctx, mon.RunCycle); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("Scheduler stopped")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down")
	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Error shutting down HTTP server")
		}
	}

	logger.Info().Msg("Shutdown complete")
}
