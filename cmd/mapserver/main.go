package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
	"github.com/lawnchairsociety/puzzlemap/internal/logger"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
	"github.com/lawnchairsociety/puzzlemap/internal/server"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/server.yaml", "Path to YAML file with a logging: section")
	addr := flag.String("addr", "", "Listen address (overrides server.address)")
	noStore := flag.Bool("no-store", false, "Run without map storage (save and load requests are refused)")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "How long to wait for connections to drain on shutdown")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting puzzle map service")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *configFile, "error", err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid server config: %v", err)
	}

	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		log.Fatalf("Failed to load catalogs: %v", err)
	}
	logger.Info("Catalogs loaded",
		"pieces", genCfg.Pieces.Len(),
		"doodads", genCfg.Doodads.Len(),
		"density", genCfg.Scatter.Density)

	var store server.MapStore
	if *noStore {
		logger.Info("Map storage disabled")
	} else {
		st, err := mapstore.OpenWithConfig(cfg.Store)
		if err != nil {
			log.Fatalf("Failed to open map store: %v", err)
		}
		defer st.Close()
		store = st
		logger.Info("Map store opened", "driver", cfg.Store.Driver)
	}

	ws := cfg.Server.WebSocket
	if len(ws.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(ws.AllowedOrigins) == 1 && ws.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", ws.AllowedOrigins)
	}

	srv := server.NewServer(cfg, genCfg, store)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Map service error: %v", err)
		}
	}()

	logger.Info("Map service running", "address", cfg.Server.Address)
	logger.Info("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down map service")
	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown did not complete cleanly", "error", err)
	}
	logger.Always("Map service stopped")
}
