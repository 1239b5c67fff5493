package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/api"
	"github.com/newthinker/straddle/internal/logger"
	"github.com/newthinker/straddle/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug, "")
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cfg.Log.File != "" {
		log = logger.Must(cfg.Log.Development || debug, cfg.Log.File)
		defer log.Sync()
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	p, store, snapshots, err := buildStack(cfg, reg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("starting straddle server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	deps := api.Deps{
		Runner:  p,
		Store:   store,
		Metrics: reg,
	}
	if snapshots != nil {
		deps.Snapshots = snapshots
	}

	server, err := api.NewServer(api.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		APIKey:           cfg.Server.APIKey,
		MetricsPath:      cfg.Metrics.Path,
		DefaultLookback:  cfg.Analysis.Lookback,
		DefaultLookahead: cfg.Analysis.Lookahead,
		JobTTL:           time.Duration(cfg.Server.JobTTLHours) * time.Hour,
		MaxJobs:          cfg.Server.MaxJobs,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down straddle server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
