package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/config"
	"github.com/newthinker/straddle/internal/earnings"
	"github.com/newthinker/straddle/internal/metrics"
	"github.com/newthinker/straddle/internal/pipeline"
	"github.com/newthinker/straddle/internal/provider/alpaca"
	"github.com/newthinker/straddle/internal/provider/marketdata"
	"github.com/newthinker/straddle/internal/resolver"
	"github.com/newthinker/straddle/internal/storage/archive"
	"github.com/newthinker/straddle/internal/storage/cache"
)

// loadConfig reads the config file or falls back to defaults, then
// validates it.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildStack wires the full analysis stack from the config: the shared
// store, the snapshot archive, the market data providers, and the pipeline.
// The caller owns closing the returned store.
func buildStack(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) (*pipeline.Pipeline, cache.Store, *archive.Archive, error) {
	store, err := cache.NewSQLite(cfg.Storage.Cache.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening cache store: %w", err)
	}

	var snapshots *archive.Archive
	if cfg.Storage.Snapshot.Enabled {
		backend, err := snapshotBackend(cfg.Storage.Snapshot)
		if err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("creating snapshot backend: %w", err)
		}
		snapshots = archive.New(backend)
	}

	bars := alpaca.New(cfg.Providers.Alpaca.APIKey, cfg.Providers.Alpaca.APISecret, reg)
	chain := marketdata.New(cfg.Providers.MarketData.Token, reg)
	cachedChain := resolver.NewCachedChain(chain, store, reg, log)

	source := earnings.NewCachedSource(earnings.NewScraper(log), store, reg, log)

	p := pipeline.New(pipeline.Deps{
		Source:   source,
		Resolver: resolver.New(bars, cachedChain, log),
		Bars:     bars,
		Store:    store,
		Archive:  snapshots,
		Metrics:  reg,
	}, log)

	return p, store, snapshots, nil
}

func snapshotBackend(cfg config.SnapshotConfig) (archive.Backend, error) {
	switch cfg.Type {
	case "", "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Type)
	}
}
