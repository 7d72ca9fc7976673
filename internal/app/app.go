package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/internal/config"
	boltInfra "github.com/fastygo/datewheel/internal/infrastructure/boltdb"
	"github.com/fastygo/datewheel/internal/infrastructure/buffer"
	"github.com/fastygo/datewheel/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/datewheel/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/datewheel/internal/infrastructure/redis"
	"github.com/fastygo/datewheel/internal/services"
	"github.com/fastygo/datewheel/internal/services/lifecycle"
	"github.com/fastygo/datewheel/repository"
	boltRepo "github.com/fastygo/datewheel/repository/bolt"
	"github.com/fastygo/datewheel/repository/memory"
	pgRepo "github.com/fastygo/datewheel/repository/postgres"
	redisRepo "github.com/fastygo/datewheel/repository/redis"
	"github.com/fastygo/datewheel/usecase"
	"github.com/fastygo/datewheel/usecase/draw"
	"github.com/fastygo/datewheel/usecase/history"
	"github.com/fastygo/datewheel/usecase/pool"
	"github.com/fastygo/datewheel/usecase/registry"
	"github.com/fastygo/datewheel/usecase/schedule"
	"github.com/fastygo/datewheel/usecase/settings"
)

const monitorInterval = 10 * time.Second

// App holds the wired use cases shared by the HTTP server and the CLI.
type App struct {
	Store     repository.KVStore
	Registry  *registry.Registry
	Pool      *pool.Manager
	Engine    *draw.Engine
	Scheduler *schedule.Scheduler
	History   *history.Log
	Settings  *settings.Service

	// Sync is nil unless SYNC_ENABLED is set; Processor is nil while the
	// mirror database is unreachable, in which case the outbox only fills.
	Monitor   *monitor.Monitor
	Processor *services.SyncProcessor
}

// Build opens the configured storage and wires every use case on top of it.
// Every resource it opens is registered with manager for shutdown.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, manager *lifecycle.Manager) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db          *bolt.DB
		redisClient *goRedis.Client
		err         error
	)
	if cfg.Storage.Driver == config.StorageBolt || cfg.Sync.Enabled {
		db, err = boltInfra.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open boltdb: %w", err)
		}
		manager.Register("boltdb", func(context.Context) error { return db.Close() })
	}

	a := &App{}
	switch cfg.Storage.Driver {
	case config.StorageBolt:
		store, err := boltRepo.NewKVStore(db, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("bolt store: %w", err)
		}
		a.Store = store
	case config.StorageRedis:
		redisClient, err = redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error { return redisClient.Close() })
		a.Store = redisRepo.NewKVStore(redisClient, cfg.Storage.Prefix, 0)
	default:
		a.Store = memory.NewKVStore()
	}
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	var mirror usecase.ActivityMirror
	if cfg.Sync.Enabled {
		outbox, err := buffer.New(db, cfg.Sync.Bucket, buffer.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("outbox: %w", err)
		}
		mirror = services.NewSyncBridge(outbox)
		a.wireSync(ctx, cfg, logger, manager, outbox, redisClient)
	}

	a.Registry, err = registry.New(ctx, a.Store, mirror, logger)
	if err != nil {
		return nil, err
	}
	a.Pool, err = pool.New(ctx, a.Store, a.Registry, cfg.Draw.DefaultPoolSize, logger)
	if err != nil {
		return nil, err
	}
	a.History = history.New(a.Store, logger)
	a.Engine = draw.NewEngine(a.Registry, a.History, logger,
		draw.WithTiming(cfg.Draw.SpinDuration, cfg.Draw.RevealDelay))
	a.Scheduler = schedule.New(a.Store, a.Registry, logger,
		schedule.WithSlot(cfg.Schedule.Weekday, cfg.Schedule.Hour),
		schedule.WithLocation(cfg.Schedule.Location))
	a.Settings = settings.New(a.Store, logger)

	if a.Processor != nil && a.Monitor.IsOnline() {
		if _, err := a.Processor.Reconcile(ctx, a.Registry.List()); err != nil {
			logger.Warn("initial mirror reconcile failed", zap.Error(err))
		}
	}
	return a, nil
}

// wireSync connects the optional Postgres mirror. A mirror that cannot be
// reached leaves the app running on local storage with the outbox filling up.
func (a *App) wireSync(ctx context.Context, cfg *config.Config, logger *zap.Logger, manager *lifecycle.Manager, outbox *buffer.Store, redisClient *goRedis.Client) {
	opts := []monitor.Option{monitor.WithOutbox(outbox)}
	if redisClient != nil {
		opts = append(opts, monitor.WithRedis(redisClient))
	}

	var pgPool *pgxpool.Pool
	if err := pgInfra.RunMigrations(cfg, logger); err != nil {
		logger.Warn("mirror migrations failed, sync paused", zap.Error(err))
	} else if pgPool, err = pgInfra.NewPool(ctx, cfg.Database, logger); err != nil {
		logger.Warn("mirror database unreachable, sync paused", zap.Error(err))
		pgPool = nil
	}
	if pgPool != nil {
		opts = append(opts, monitor.WithPostgres(pgPool))
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pgPool, logger)
			return nil
		})
	}

	a.Monitor = monitor.New(monitorInterval, logger, opts...)
	a.Monitor.Start()
	manager.Register("monitor", func(context.Context) error {
		a.Monitor.Stop()
		return nil
	})

	if pgPool == nil {
		return
	}
	a.Processor = services.NewSyncProcessor(outbox, a.Monitor, pgRepo.NewActivityRepository(pgPool), logger,
		services.ProcessorConfig{
			Interval:   cfg.Sync.Interval,
			BatchSize:  cfg.Sync.BatchSize,
			MaxRetries: cfg.Sync.MaxRetry,
			Retention:  time.Duration(cfg.Sync.RetentionHours) * time.Hour,
		})
	a.Processor.Start()
	manager.Register("sync_processor", func(ctx context.Context) error {
		a.Processor.Stop(ctx)
		return nil
	})
}
