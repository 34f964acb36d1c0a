// -----------------------------------------------------------------------
// Last Modified: Wednesday, 8th October 2025 11:48:25 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/reviewsvc/internal/config"
	"github.com/ternarybob/reviewsvc/internal/grade"
	"github.com/ternarybob/reviewsvc/internal/logging"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
	"github.com/ternarybob/reviewsvc/internal/review"
	"github.com/ternarybob/reviewsvc/internal/server"
	"github.com/ternarybob/reviewsvc/internal/workspace"
)

var (
	configFile = flag.String("config", "", "Configuration file path (TOML)")
	serverPort = flag.Int("port", 0, "Server port (overrides config)")
	serverHost = flag.String("host", "", "Server host (overrides config)")
)

func main() {
	flag.Parse()

	// Startup sequence (REQUIRED ORDER): load config -> apply CLI
	// overrides -> initialize logger -> wire pipelines -> start server.
	if *configFile == "" {
		if _, err := os.Stat("reviewsvc.toml"); err == nil {
			*configFile = "reviewsvc.toml"
		}
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *serverPort != 0 {
		cfg.Server.Port = *serverPort
	}
	if *serverHost != "" {
		cfg.Server.Host = *serverHost
	}

	logger := logging.New(cfg, "logs/reviewsvc.log")

	logger.Info().
		Str("config_file", *configFile).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("configuration loaded")

	ws, err := workspace.NewManager("", time.Duration(cfg.Workspace.CloneTimeoutSecs)*time.Second, os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize workspace manager")
	}

	modelClient, err := modelclient.NewFromConfig(cfg, logger)
	if err != nil && !modelclient.IsNotConfigured(err) {
		logger.Fatal().Err(err).Msg("failed to initialize model client")
	}

	reviewOrch := review.New(ws, modelClient, review.Options{
		TTL:                 time.Duration(cfg.Review.TTLSeconds) * time.Second,
		SweepIntervalSecs:   cfg.Review.SweepIntervalSecs,
		MaxConcurrentChecks: cfg.Review.MaxConcurrentChecks,
	}, logger)

	gradeOrch := grade.New(ws, modelClient, grade.Options{
		TTL:                 time.Duration(cfg.Review.TTLSeconds) * time.Second,
		SweepIntervalSecs:   cfg.Review.SweepIntervalSecs,
		MaxFiles:            cfg.Grade.MaxFiles,
		MaxCharsPerFile:     cfg.Grade.MaxCharsPerFile,
		MaxParallelTasks:    cfg.Grade.MaxParallelTasks,
		MaxParallelCriteria: cfg.Grade.MaxParallelCriteria,
	}, logger)

	if err := reviewOrch.StartSweep(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start review TTL sweep")
	}
	if err := gradeOrch.StartSweep(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start grade TTL sweep")
	}
	defer reviewOrch.Stop()
	defer gradeOrch.Stop()

	shutdownChan := make(chan struct{})
	srv := server.New(cfg, logger, reviewOrch, gradeOrch)
	srv.SetShutdownChannel(shutdownChan)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("server goroutine panicked")
			}
		}()
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	time.Sleep(100 * time.Millisecond)
	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("server ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("interrupt signal received")
	case <-shutdownChan:
		logger.Info().Msg("shutdown requested via HTTP")
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
