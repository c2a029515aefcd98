// Package main is the entry point for the CyberTrek progression ledger API.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: the progression ledger and course catalog, no external dependencies
// - Application: use case orchestration (Commands/Queries/Sagas)
// - Infrastructure: persistence, caching, messaging, wallet identity
// - Interface: HTTP API handlers
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viditkulsh/CyberTrek/config"
	"github.com/viditkulsh/CyberTrek/internal/application/command"
	"github.com/viditkulsh/CyberTrek/internal/application/query"
	"github.com/viditkulsh/CyberTrek/internal/application/saga"
	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/identity"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/messaging"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/memory"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/postgres"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/persistence/redis"
	httpserver "github.com/viditkulsh/CyberTrek/internal/interface/http"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
	"github.com/viditkulsh/CyberTrek/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting CyberTrek",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", string(cfg.App.Storage)),
	)

	clk := clock.NewSystem()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		progressRepo progress.Repository
		moduleRepo   catalog.ModuleProgressRepository
	)

	switch cfg.App.Storage {
	case config.StoragePostgres:
		log.Info("connecting to database...")

		var conn *postgres.Connection
		connectCfg := retry.DefaultConfig()
		connectCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Warn("database connection failed, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}
		err = retry.Do(ctx, connectCfg, func(ctx context.Context) error {
			var connErr error
			if cfg.Database.URL != "" {
				conn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			} else {
				pgCfg := postgres.DefaultConfig()
				pgCfg.Host = cfg.Database.Host
				pgCfg.Port = cfg.Database.Port
				pgCfg.User = cfg.Database.User
				pgCfg.Password = cfg.Database.Password
				pgCfg.Database = cfg.Database.Name
				pgCfg.SSLMode = cfg.Database.SSLMode
				pgCfg.MaxConns = cfg.Database.MaxConns
				pgCfg.MinConns = cfg.Database.MinConns
				pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
				pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
				pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout
				conn, connErr = postgres.NewConnection(ctx, pgCfg)
			}
			return connErr
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()
		log.Info("database connection established")

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		if status, statusErr := migrator.Status(ctx); statusErr != nil {
			log.Warn("failed to get migration status", logger.Err(statusErr))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", applied),
				logger.Int("total", len(status)),
			)
		}

		progressRepo = postgres.NewProgressRepository(conn)
		moduleRepo = postgres.NewModuleProgressRepository(conn)

	case config.StorageMemory:
		log.Info("using in-memory storage")
		progressRepo = memory.NewProgressRepository()
		moduleRepo = memory.NewModuleProgressRepository()

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.App.Storage)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache    *redis.Cache
		progressCache progress.Cache
		leaderboard   progress.Leaderboard
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}
		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()
			progressCache = redis.NewProgressCache(redisCache)
			leaderboard = redis.NewLeaderboard(redisCache)
			log.Info("Redis connection established")
		}
	}
	if leaderboard == nil {
		leaderboard = memory.NewLeaderboard()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")

	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = log
	localBusCfg.AsyncMode = true

	var eventBus interface {
		shared.EventPublisher
		Subscribe(shared.EventHandler) error
		Close() error
	}

	if redisCache != nil {
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewEventBridge(redisCache),
			ChannelName:    cfg.Redis.EventChannel,
			InstanceID:     cfg.App.InstanceID,
			LocalBusConfig: localBusCfg,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusCfg)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if err := eventBus.Subscribe(messaging.NewLeaderboardProjector(leaderboard, log)); err != nil {
		return fmt.Errorf("failed to subscribe leaderboard projector: %w", err)
	}
	if progressCache != nil {
		if err := eventBus.Subscribe(messaging.NewCacheInvalidator(progressCache, log)); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidator: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	catalogRepo := catalog.NewBuiltinRepository()
	achievementFlow := saga.NewAchievementFlow(catalogRepo, log)

	deps := httpserver.Dependencies{
		AuthenticateWallet: command.NewAuthenticateWalletHandler(progressRepo, achievementFlow, eventBus, clk, log),
		GrantXP:            command.NewGrantXPHandler(progressRepo, eventBus, clk, log),
		StakeTokens:        command.NewStakeTokensHandler(progressRepo, achievementFlow, eventBus, clk, log),
		EnrollCourse:       command.NewEnrollCourseHandler(progressRepo, catalogRepo, achievementFlow, eventBus, clk, log),
		SubmitQuiz:         command.NewSubmitQuizHandler(progressRepo, catalogRepo, moduleRepo, achievementFlow, eventBus, clk, log),
		WithdrawStake:      command.NewWithdrawStakeHandler(progressRepo, eventBus, clk, log),
		ClaimReward:        command.NewClaimRewardHandler(progressRepo, catalogRepo, eventBus, clk, log),
		GetProgress:        query.NewGetProgressHandler(progressRepo, progressCache, cfg.Cache.ProgressTTL, clk, log),
		GetLeaderboard:     query.NewGetLeaderboardHandler(leaderboard, progressRepo, log),
		GetRank:            query.NewGetRankHandler(leaderboard),
		EstimateReward:     query.NewEstimateRewardHandler(),
		Catalog:            catalogRepo,
		Challenges:         identity.NewChallengeStore(cfg.App.ChallengeTTL, clk),
		Logger:             log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins

	server := httpserver.NewServer(httpConfig, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. START AND GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("CyberTrek is running", logger.String("address", httpConfig.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop http server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown complete")
	return nil
}
