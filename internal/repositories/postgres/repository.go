package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/cache"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db       *gorm.DB
	test     repositories.TestRepository
	question repositories.QuestionRepository
	result   repositories.ResultRepository
}

func NewRepository(db *gorm.DB, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) repositories.Repository {
	return &Repository{
		db:       db,
		test:     NewTestPostgreSQL(db, cacheService, cacheTTL, logger),
		question: NewQuestionPostgreSQL(db),
		result:   NewResultPostgreSQL(db),
	}
}

func (r *Repository) Test() repositories.TestRepository {
	return r.test
}

func (r *Repository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *Repository) Result() repositories.ResultRepository {
	return r.result
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
