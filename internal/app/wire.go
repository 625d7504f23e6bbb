package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/backup"
	"github.com/printdesk/printdesk/internal/catalog"
	"github.com/printdesk/printdesk/internal/inventory"
	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/orders"
	"github.com/printdesk/printdesk/internal/platform/blob"
	"github.com/printdesk/printdesk/internal/platform/cache"
	"github.com/printdesk/printdesk/internal/reports"
	"github.com/printdesk/printdesk/internal/settings"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
	"github.com/printdesk/printdesk/internal/store/postgres"
	"github.com/printdesk/printdesk/internal/store/redisstore"
	"github.com/printdesk/printdesk/internal/store/sqlite"
)

// Services holds the store and every domain service built on it. Binaries
// build one Services value and hand its parts to handlers, jobs or commands.
type Services struct {
	Store *store.Store
	Redis *redis.Client
	Blobs blob.Store

	Orders    *orders.Service
	Inventory *inventory.Service
	Catalog   *catalog.Service
	Settings  *settings.Service
	Reports   *reports.Service
	Backup    *backup.Service
}

// Wire opens the configured store, blob storage and Redis connection and
// builds the services. metrics may be nil.
func Wire(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	var redisClient *redis.Client
	if cfg.QueueEnabled() {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		redisClient = client
	}
	st, err := OpenStore(ctx, cfg, redisClient, logger)
	if err != nil {
		closeRedis(redisClient, logger)
		return nil, err
	}
	blobs, err := blob.Open(ctx, blob.Config{
		Driver: cfg.BlobDriver,
		FSRoot: cfg.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:    cfg.BlobS3Bucket,
			Region:    cfg.BlobS3Region,
			Endpoint:  cfg.BlobS3Endpoint,
			PathStyle: cfg.BlobS3PathStyle,
		},
	})
	if err != nil {
		_ = st.Close()
		closeRedis(redisClient, logger)
		return nil, fmt.Errorf("open blob storage: %w", err)
	}

	var reportCache *reports.Cache
	if redisClient != nil {
		reportCache = reports.NewCache(redisClient, cfg.CacheTTL)
	}
	svc := &Services{
		Store:     st,
		Redis:     redisClient,
		Blobs:     blobs,
		Orders:    orders.NewService(st, logger),
		Inventory: inventory.NewService(inventory.NewRepository(st), logger),
		Catalog:   catalog.NewService(st),
		Settings:  settings.NewService(st),
		Reports:   reports.NewService(st, reportCache, logger),
		Backup:    backup.NewService(st, blobs, logger, cfg.BackupRetention),
	}
	st.Subscribe(svc.Reports.Invalidate)
	if metrics != nil {
		st.Subscribe(metrics.ObserveChange)
	}
	if err := svc.Backup.SeedDefaults(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	logger.Info("services ready",
		slog.String("store", cfg.StoreDriver),
		slog.String("blob", string(blobs.Driver())),
		slog.Bool("redis", redisClient != nil))
	return svc, nil
}

// Close releases the store and the Redis connection.
func (s *Services) Close() error {
	var errs []error
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}

// OpenStore opens the backend named by cfg.StoreDriver and loads it. The
// redis driver reuses client.
func OpenStore(ctx context.Context, cfg *Config, client *redis.Client, logger *slog.Logger) (*store.Store, error) {
	var (
		backend store.Backend
		err     error
	)
	switch cfg.StoreDriver {
	case StoreMemory:
		backend = memory.New()
	case StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open store: %w", err)
			}
		}
		backend, err = sqlite.Open(ctx, cfg.SQLitePath)
	case StorePostgres:
		backend, err = postgres.Open(ctx, cfg.PGDSN)
	case StoreRedis:
		if client == nil {
			return nil, errors.New("open store: redis driver needs REDIS_ADDR")
		}
		backend = redisstore.New(client, cfg.RedisStorePrefix)
	default:
		return nil, fmt.Errorf("open store: unknown driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st, err := store.Open(ctx, backend, store.WithSchema(model.NewSchema()), store.WithLogger(logger))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return st, nil
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
