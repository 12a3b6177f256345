package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rosesandhello/facescrape/app/api"
	"github.com/rosesandhello/facescrape/app/category"
	"github.com/rosesandhello/facescrape/app/cfg"
	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/identify"
	"github.com/rosesandhello/facescrape/app/inference"
	"github.com/rosesandhello/facescrape/app/market"
	"github.com/rosesandhello/facescrape/app/pricing"
	"github.com/rosesandhello/facescrape/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Facescrape", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := category.NewConfigCache(appCfg.WatchesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load watch configurations", "dir", appCfg.WatchesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Watch configurations loaded", "count", configCache.GetConfigCount())

	oppRepo := database.NewOpportunityRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	inferenceClient := inference.NewClient(appCfg.OllamaURL, appCfg.TextModel, appCfg.VisionModel, appCfg.UserAgent, nil)
	identifier := identify.NewIdentifier(inferenceClient, inferenceClient)

	marketplace := market.NewFacebookClient(appCfg.UserAgent, true)
	ebay := market.NewEbayClient(appCfg.UserAgent, httpClient)

	gasPrice := pricing.NewGasPrice(appCfg.GasPriceOverride, nil)
	lookup := pricing.NewLookup(ebay, appCfg.UseLowestSoldPrice)
	pickup := pricing.NewPickupEstimator(appCfg.HomeLat, appCfg.HomeLng, appCfg.VehicleMPG, gasPrice)
	evaluator := pricing.NewEvaluator(appCfg.MinProfitDollars)

	scheduler := tasks.NewScheduler(configCache, oppRepo, marketplace, identifier, lookup, pickup, evaluator)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)

	apiHandler := api.NewHandler(configCache, oppRepo, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
