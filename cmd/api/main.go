package main

import (
	"context"
	"log"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/events"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/handler"
	kit_redis "github.com/CloudBedrock/cribops-wp-kit-sub000/internal/redis"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/server"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/services"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/storage"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/database"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"

	"github.com/joho/godotenv"
)

const eventsChannel = "cribops:attachment-events"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := kit_redis.NewClient(kit_redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cache := kit_redis.NewCacheStore(redisClient, kit_redis.DefaultCacheConfig())

	// A failed client construction disables the subsystem for this process;
	// uploads are skipped and URLs pass through unmodified.
	var store services.ObjectStore
	if cfg.Offload.IsConfigured() {
		client, err := storage.NewClient(ctx, storage.Config{
			Region:    cfg.Offload.Region,
			Bucket:    cfg.Offload.Bucket,
			AccessKey: cfg.Offload.AccessKey,
			SecretKey: cfg.Offload.SecretKey,
			Endpoint:  cfg.Offload.Endpoint,
			CDNUrl:    cfg.Offload.CDNUrl,
		})
		if err != nil {
			l.Errorf("CDN offload disabled, object store client construction failed: %s", err)
		} else {
			store = client
		}
	} else {
		l.Infof("CDN offload not configured; URLs pass through unmodified")
	}

	attachments := repository.NewAttachmentRepository(pool)
	ledger := repository.NewLedgerRepository(pool)

	bus := events.NewRedisBus(redisClient, eventsChannel, l)

	uploads := services.NewUploadService(attachments, ledger, store, cache, cfg.Offload, l)
	rewrites := services.NewRewriteService(ledger, store, cfg.Offload, l)
	assets := services.NewAssetService(cache, store, cfg.Offload, l)
	batch := services.NewBatchService(attachments, ledger, uploads, cache, bus, l)
	hooks := services.NewSyncHooks(attachments, uploads, l)

	events.RegisterSyncHooks(bus, hooks)
	if err := bus.Start(); err != nil {
		log.Fatalf("Failed to start event bus: %v", err)
	}
	defer bus.Stop()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Offload: handler.NewOffloadHandler(cfg.Offload, store, batch, uploads, attachments),
		Rewrite: handler.NewRewriteHandler(rewrites, assets),
	}, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return cache.Ping(ctx)
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
