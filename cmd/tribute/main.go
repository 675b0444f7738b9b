package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tributary/tribute-ui-api/config"
	"github.com/tributary/tribute-ui-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting tribute service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"identity_mode", cfg.Identity.Mode,
		"dev", cfg.IsDev)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	pool, err := bootstrap.ConnectPool(ctx, bootstrap.DatabaseConfig{
		DBConfig: cfg.Postgres,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("connect pgx pool: %w", err)
	}
	defer pool.Close()

	identityClient, err := bootstrap.BuildIdentityClient(cfg.Identity, logger)
	if err != nil {
		return err
	}

	services, err := bootstrap.BuildServices(bootstrap.ServicesConfig{
		Config:   &cfg,
		DB:       db,
		Pool:     pool,
		Redis:    redisClient,
		Identity: identityClient,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	return serve(ctx, &cfg, services, logger)
}

// serve runs the session event loop, the role-change watcher, and the
// HTTP server until a shutdown signal arrives.
func serve(ctx context.Context, cfg *config.AppConfig, services *bootstrap.ServiceContainer, logger *slog.Logger) error {
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return services.Sessions.Run(groupCtx)
	})
	if services.Watcher != nil {
		group.Go(func() error {
			return services.Watcher.Run(groupCtx)
		})
	}

	server, err := bootstrap.StartHTTPServer(bootstrap.HTTPServerConfig{
		Addr:     cfg.HTTP.Addr,
		Services: services,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	<-groupCtx.Done()
	logger.Info("shutdown signal received")

	if shutdownErr := bootstrap.ShutdownHTTPServer(context.Background(), server, logger); shutdownErr != nil {
		logger.Error("HTTP server shutdown failed", "error", shutdownErr)
	}
	services.Bus.Close()

	if waitErr := group.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// initInfrastructure connects shared dependencies used by the service runtime.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cfg.Postgres,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	if !cfg.Session.PersistToRedis {
		logger.InfoContext(ctx, "redis session persistence disabled; tokens are held in memory only")
		return db, nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return db, redisClient, nil
}
