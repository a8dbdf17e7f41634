package postgres

import (
	"context"
	"fmt"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

var resultSortColumns = []string{"created_at", "percent", "total_score", "student_full_name", "student_group"}

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	db := r.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create test result: %w", err)
	}
	return nil
}

// ListByTest returns results newest first unless filters say otherwise, plus the unpaginated total
func (r *ResultPostgreSQL) ListByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	db := r.helpers.getDB(tx)
	scoped := func() *gorm.DB {
		query := db.WithContext(ctx).Model(&models.TestResult{}).Where("test_id = ?", testID)
		if filters.Group != "" {
			query = query.Where("student_group = ?", filters.Group)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count test results: %w", err)
	}

	var results []*models.TestResult
	query := r.helpers.ApplyPaginationAndSort(scoped(), filters.SortBy, filters.SortOrder, "created_at", resultSortColumns, filters.Limit, filters.Offset)
	if err := query.Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list test results: %w", err)
	}

	return results, total, nil
}
