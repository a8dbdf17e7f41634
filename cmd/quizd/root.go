package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bgitu-quiz/quiz-service/internal/cache"
	"github.com/bgitu-quiz/quiz-service/internal/config"
	"github.com/bgitu-quiz/quiz-service/internal/events"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/repositories/postgres"
	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/bgitu-quiz/quiz-service/internal/validator"
	"github.com/bgitu-quiz/quiz-service/pkg"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "quizd",
		Short:         "Online quiz service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(serveCmd(&envFile))
	root.AddCommand(migrateCmd(&envFile))
	root.AddCommand(importCmd(&envFile))
	root.AddCommand(exportResultsCmd(&envFile))
	root.AddCommand(watchResultsCmd(&envFile))
	return root
}

// app holds the dependencies shared by every command
type app struct {
	cfg       *config.Config
	logger    utils.Logger
	slog      *slog.Logger
	db        *gorm.DB
	redis     *redis.Client
	repo      repositories.Repository
	publisher events.EventPublisher
	services  *services.ServiceManager
}

func loadConfig(envFile string) (*config.Config, utils.Logger, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, utils.NewLogger(os.Stdout, cfg.SlogLevel(), cfg.IsProduction()), nil
}

// newApp connects the database, cache and publisher. Close releases them.
func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, logger, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, slog: utils.ToSlogLogger(logger)}

	a.db, err = pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var cacheService cache.CacheService = cache.NopCache{}
	if cfg.Cache.Enabled {
		a.redis, err = pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			cacheService = cache.NewRedisCache(a.redis, cfg.Cache.KeyPrefix, a.slog)
		}
	}

	a.repo = postgres.NewRepository(a.db, cacheService, cfg.Cache.TTL, a.slog)

	a.publisher, err = cfg.Events.CreateEventPublisher(a.slog)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.services = services.NewServiceManager(a.repo, a.publisher, a.slog, validator.New())
	return a, nil
}

func (a *app) Close() error {
	var result *multierror.Error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close database: %w", err))
		}
	}
	return result.ErrorOrNil()
}
