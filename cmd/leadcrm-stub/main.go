package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/smartconvert/leadcrm/internal/config"
	"github.com/smartconvert/leadcrm/internal/logger"
	"github.com/smartconvert/leadcrm/internal/stubapi"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load("info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Component("stubapi")

	gin.SetMode(gin.ReleaseMode)

	store, err := stubapi.NewStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	if err := stubapi.Seed(store); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed store")
	}

	// Create server
	srv, err := stubapi.New(cfg.Stub, store, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("user", stubapi.SeedUsername).
		Msg("Starting leadcrm stub backend...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start HTTP server (this blocks until a signal arrives)
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
