package main

import (
	"context"
	"log"

	"livepoll/config"
	"livepoll/internal/commands"
	"livepoll/internal/handler"
	"livepoll/internal/middleware"
	"livepoll/internal/redis"
	"livepoll/internal/repository"
	"livepoll/internal/repository/memory"
	"livepoll/internal/server"
	"livepoll/internal/services"
	"livepoll/internal/storage"
	"livepoll/internal/websocket"
	"livepoll/pkg/database"
	"livepoll/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	defer l.Sync()
	logger.SetGlobalLogger(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openLedger(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open vote ledger: %v", err)
	}
	defer database.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	auth := services.NewAuthService(store.Users(), cfg)
	if cfg.AdminPasswordHash != "" {
		if err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPasswordHash); err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
	}
	if cfg.LedgerDriver == "memory" {
		if err := seedSamples(ctx, store); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}

	var (
		cache     services.ResultsCache
		notifier  handler.ResultsNotifier = websocket.NewLocalPublisher(hub)
		viewers   *redis.ViewerStore
		voteLimit middleware.VoteLimiter
	)
	if cfg.RedisEnabled() {
		redis.Initialize(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		client := redis.GetClient()
		if err := redis.Ping(ctx, client); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}

		cache = redis.NewResultsCache(client, redis.CacheConfig{ResultsTTL: cfg.ResultsCacheTTL})
		notifier = redis.NewPublisher(client)
		auth.WithDenylist(redis.NewTokenDenylist(client))
		viewers = redis.NewViewerStore(client, cfg.ViewerTTL)
		voteLimit = redis.NewRateLimiter(client, redis.RateLimitConfig{
			VoteLimit:  cfg.VoteRateLimit,
			VoteWindow: cfg.VoteRateWindow,
		})

		bridge := websocket.NewRedisBridge(redis.NewSubscriber(client), hub, l)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error(ctx, "results_bridge_stopped", zap.Error(err))
			}
		}()
		l.Infof("Redis enabled at %s:%s", cfg.RedisHost, cfg.RedisPort)
	}

	var objects services.ObjectStore
	if cfg.S3Enabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicURL,
			PresignTTL: cfg.S3URLExpiry,
		})
		if err != nil {
			log.Fatalf("Failed to create s3 client: %v", err)
		}
		objects = s3Client
	}

	results := services.NewResultsService(store, cache, l)
	voting := services.NewVotingService(store, results, l)
	release := services.NewReleaseService(store, results, l)
	history := services.NewHistoryService(store, l)
	catalog := services.NewCatalogService(store, l)
	exporter := services.NewAuditExportService(history, objects, l)

	bus := commands.NewBus()
	voting.RegisterHandlers(bus)
	release.RegisterHandlers(bus)

	var (
		viewerCounter handler.ViewerCounter
		viewerTracker websocket.ViewerTracker
	)
	if viewers != nil {
		viewerCounter = viewers
		viewerTracker = viewers
	}

	handlers := &server.Handlers{
		Auth:  handler.NewAuthHandler(auth),
		Polls: handler.NewPollHandler(catalog, viewerCounter),
		Votes: handler.NewVoteHandler(bus, results, notifier, l),
		Admin: handler.NewAdminHandler(bus, history, exporter, results, notifier, l),
		Live:  websocket.NewHandler(hub, results, viewerTracker, l),
	}

	guards := server.Guards{
		Signed: middleware.AuthMiddleware(auth),
		Admin:  middleware.AdminAuthMiddleware(auth),
	}
	if voteLimit != nil {
		guards.VoteLimit = middleware.VoteRateLimitMiddleware(voteLimit, l)
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, guards, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		if redis.IsInitialized() {
			return redis.Ping(ctx, redis.GetClient())
		}
		return nil
	})

	if err := srv.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}

// openLedger returns the vote ledger selected by LEDGER_DRIVER.
func openLedger(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.LedgerDriver == "memory" {
		return memory.NewStore(cfg.DBLockTimeout), nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgresStore(db, cfg.DBLockTimeout), nil
}

// seedSamples loads the sample accounts and polls into a fresh memory ledger.
func seedSamples(ctx context.Context, store repository.Store) error {
	accounts, err := database.SeedUsers(ctx, store.Users(), nil)
	if err != nil {
		return err
	}
	_, err = database.Seed(ctx, store.Polls(), nil, database.AdminOf(accounts))
	return err
}
