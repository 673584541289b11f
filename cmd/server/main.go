package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/topdeck/cardforge/internal/config"
	"github.com/topdeck/cardforge/internal/enrich"
	"github.com/topdeck/cardforge/internal/forex"
	"github.com/topdeck/cardforge/internal/logging"
	"github.com/topdeck/cardforge/internal/pricing"
	"github.com/topdeck/cardforge/internal/scryfall"
	"github.com/topdeck/cardforge/internal/session"
	"github.com/topdeck/cardforge/internal/shopify"
	"github.com/topdeck/cardforge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"session_ttl", cfg.Session.TTL,
		"session_max_files", cfg.Session.MaxFiles,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Session store with TTL sweeping
	sessions := session.NewService(session.Limits{
		MaxFiles:    cfg.Session.MaxFiles,
		MaxFileSize: cfg.Session.MaxFileSize,
		TTL:         cfg.Session.TTL,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go sessions.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	// Enrichment collaborators
	catalog := scryfall.New(cfg.Scryfall.BaseURL, cfg.Scryfall.Timeout, cfg.Scryfall.Throttle)
	rates := forex.New(cfg.Forex.BaseURL, cfg.Forex.Timeout)
	calc := pricing.NewCalculator(cfg.Pricing.VATPercent)
	enricher := enrich.New(catalog, rates, calc, cfg.Forex.From, cfg.Forex.To)

	// Marketplace upload is optional; the endpoint reports when it is off.
	var uploader web.Uploader
	if cfg.Shopify.Store != "" && cfg.Shopify.AccessToken != "" {
		client := shopify.New(cfg.Shopify.Store, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion, cfg.Shopify.Timeout)
		uploader = shopify.NewUploader(client)
		slog.Info("marketplace upload enabled", "store", cfg.Shopify.Store)
	} else {
		slog.Info("marketplace upload disabled: store or access token not set")
	}

	server := web.NewServer(cfg, sessions, catalog, enricher, uploader)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
