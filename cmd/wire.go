package cmd

import (
	"context"
	"fmt"

	"atdw-sync/core/config"
	"atdw-sync/core/database"
	"atdw-sync/core/logger"
	"atdw-sync/core/storage"
	"atdw-sync/feature/atdw"
	"atdw-sync/feature/catalog/archive"
	"atdw-sync/feature/catalog/attribute"
	"atdw-sync/feature/catalog/changelog"
	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/summary"
	syncfeature "atdw-sync/feature/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bootstrap loads configuration, builds the logger and connects the
// database — the preamble every command shares.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, l, db, nil
}

// stack is the assembled synchronization pipeline.
type stack struct {
	registry  *attribute.Registry
	log       *changelog.Log
	refresher *summary.Refresher
	feed      *atdw.Client
	engine    *syncfeature.Engine
	runner    *syncfeature.Runner
}

// buildStack wires the pipeline: registry, media dedup store, change
// log with the summary refresher subscribed for invalidation, the
// optional raw snapshot archive, the Atlas feed client, and the engine
// plus runner on top.
func buildStack(ctx context.Context, cfg *config.Config, db *gorm.DB, l *zap.Logger) (*stack, error) {
	registry := attribute.NewRegistry(db, l, cfg.Sync.AttributePolicy)
	mediaStore := media.NewStore(l)
	chlog := changelog.New(l)

	refresher := summary.NewRefresher(db, mediaStore, l)
	chlog.Subscribe(refresher)

	var arch *archive.Archive
	if cfg.Sync.ArchiveRaw {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		arch = archive.New(client, cfg.Storage.Bucket, l)
		if err := arch.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
	}

	feed := atdw.NewClient(cfg.Atdw, l)
	engine := syncfeature.NewEngine(db, registry, mediaStore, chlog, arch, l, cfg.Sync)
	runner := syncfeature.NewRunner(db, engine, feed, l, cfg.Sync)

	return &stack{
		registry:  registry,
		log:       chlog,
		refresher: refresher,
		feed:      feed,
		engine:    engine,
		runner:    runner,
	}, nil
}
