package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuestionPostgreSQL) GetOrCreateBlock(ctx context.Context, tx *gorm.DB, name string) (*models.Block, error) {
	db := q.helpers.getDB(tx)
	block := models.Block{Name: name}
	if err := db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&block).Error; err != nil {
		return nil, fmt.Errorf("failed to get or create block %q: %w", name, err)
	}
	return &block, nil
}

func (q *QuestionPostgreSQL) FindOrCreate(ctx context.Context, tx *gorm.DB, question *models.Question) (bool, error) {
	db := q.helpers.getDB(tx)
	query := db.WithContext(ctx).Where("question = ? AND type = ?", question.Text, question.Type)
	if question.BlockID != nil {
		query = query.Where("block_id = ?", *question.BlockID)
	} else {
		query = query.Where("block_id IS NULL")
	}

	var existing models.Question
	err := query.First(&existing).Error
	if err == nil {
		*question = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up question: %w", err)
	}

	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return false, fmt.Errorf("failed to create question: %w", err)
	}
	return true, nil
}
