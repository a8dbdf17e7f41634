package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/cache"
	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const testListCacheKey = "tests:list"

func testCacheKey(id uint) string {
	return "test:" + strconv.FormatUint(uint64(id), 10)
}

type TestPostgreSQL struct {
	db       *gorm.DB
	helpers  *SharedHelpers
	cache    cache.CacheService
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewTestPostgreSQL(db *gorm.DB, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) repositories.TestRepository {
	return &TestPostgreSQL{
		db:       db,
		helpers:  NewSharedHelpers(db),
		cache:    cacheService,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	t.dropCache(ctx, testListCacheKey)
	return nil
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.helpers.getDB(tx)
	var test models.Test
	if err := db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get test %d: %w", id, err)
	}
	return &test, nil
}

// GetWithQuestions loads blocks and linked questions. Reads outside a transaction go through the cache.
func (t *TestPostgreSQL) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	key := testCacheKey(id)
	if tx == nil {
		var cached models.Test
		if err := t.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !cache.IsCacheMiss(err) {
			t.logger.Warn("Test cache read failed", "test_id", id, "error", err)
		}
	}

	db := t.helpers.getDB(tx)
	var test models.Test
	err := db.WithContext(ctx).
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Blocks.Block").
		Preload("TestQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("TestQuestions.Question").
		Preload("TestQuestions.Question.Block").
		First(&test, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get test %d with questions: %w", id, err)
	}

	if tx == nil {
		if err := t.cache.Set(ctx, key, &test, t.cacheTTL); err != nil {
			t.logger.Warn("Test cache write failed", "test_id", id, "error", err)
		}
	}
	return &test, nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Test, error) {
	if tx == nil {
		var cached []*models.Test
		if err := t.cache.Get(ctx, testListCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	db := t.helpers.getDB(tx)
	var tests []*models.Test
	if err := db.WithContext(ctx).Order("id ASC").Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	if tx == nil {
		if err := t.cache.Set(ctx, testListCacheKey, tests, t.cacheTTL); err != nil {
			t.logger.Warn("Test list cache write failed", "error", err)
		}
	}
	return tests, nil
}

func (t *TestPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	db := t.helpers.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check test name: %w", err)
	}
	return count > 0, nil
}

// AddBlock links a block to a test, updating the question count when the link exists
func (t *TestPostgreSQL) AddBlock(ctx context.Context, tx *gorm.DB, testID, blockID uint, numQuestions int) error {
	db := t.helpers.getDB(tx)
	link := models.TestBlock{TestID: testID, BlockID: blockID, NumQuestions: numQuestions}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "test_id"}, {Name: "block_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"num_questions"}),
		}).
		Create(&link).Error; err != nil {
		return fmt.Errorf("failed to add block %d to test %d: %w", blockID, testID, err)
	}
	return nil
}

// LinkQuestions appends questions to a test in the given order. Already linked questions are skipped.
func (t *TestPostgreSQL) LinkQuestions(ctx context.Context, tx *gorm.DB, testID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	links := make([]models.TestQuestion, len(questionIDs))
	for i, qid := range questionIDs {
		links[i] = models.TestQuestion{TestID: testID, QuestionID: qid}
	}

	db := t.helpers.getDB(tx)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link questions to test %d: %w", testID, err)
	}
	return nil
}

func (t *TestPostgreSQL) InvalidateCache(ctx context.Context, testID uint) error {
	if err := t.cache.Delete(ctx, testCacheKey(testID)); err != nil {
		return err
	}
	return t.cache.Delete(ctx, testListCacheKey)
}

func (t *TestPostgreSQL) dropCache(ctx context.Context, key string) {
	if err := t.cache.Delete(ctx, key); err != nil {
		t.logger.Warn("Cache invalidation failed", "key", key, "error", err)
	}
}
