package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/game"
	"github.com/user/vida-loka-sim/internal/server"
	"github.com/user/vida-loka-sim/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// The logger level comes from the configuration
		bootstrap := setupLogger("info")
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	// Open the visited locations store
	ctx := context.Background()
	visited, err := storage.OpenSQLite(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer visited.Close()

	// Load game data
	catalog, err := game.NewDataLoader(cfg.Game.DataDir, logger).LoadCatalog()
	if err != nil {
		logger.Fatal("Failed to load game data", zap.Error(err))
	}

	// Initialize game manager
	audio := server.NewAudioHub(logger)
	gameManager := game.NewGameManager(cfg,
		game.WithLogger(logger),
		game.WithCatalog(catalog),
		game.WithVisitedStore(visited),
		game.WithAudio(audio.Port),
	)

	// Set up HTTP server
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.New(gameManager, audio, logger).Routes(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	gameManager.Shutdown()
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, _ := config.Build()
	return logger
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	logger.Info("Shutting down")
}
