package repositories

import (
	"context"
	"errors"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the quiz repositories over one database
type Repository interface {
	Test() TestRepository
	Question() QuestionRepository
	Result() ResultRepository

	// WithTransaction runs fn inside a database transaction. Repositories called with the
	// given tx take part in it.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// TestRepository reads and links quiz tests. A nil tx uses the base connection.
type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) // Blocks and questions in link order
	List(ctx context.Context, tx *gorm.DB) ([]*models.Test, error)

	ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error)

	// Linking
	AddBlock(ctx context.Context, tx *gorm.DB, testID, blockID uint, numQuestions int) error
	LinkQuestions(ctx context.Context, tx *gorm.DB, testID uint, questionIDs []uint) error

	InvalidateCache(ctx context.Context, testID uint) error
}

type QuestionRepository interface {
	GetOrCreateBlock(ctx context.Context, tx *gorm.DB, name string) (*models.Block, error)
	// FindOrCreate matches on block, text and type and reports whether a row was inserted
	FindOrCreate(ctx context.Context, tx *gorm.DB, question *models.Question) (bool, error)
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint, filters ResultFilters) ([]*models.TestResult, int64, error)
}

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	Group     string `json:"group" form:"group"`
	Limit     int    `json:"limit" form:"limit"`
	Offset    int    `json:"offset" form:"offset"`
	SortBy    string `json:"sort_by" form:"sort_by"`       // "created_at", "percent", "student_full_name"
	SortOrder string `json:"sort_order" form:"sort_order"` // "asc", "desc"
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether err wraps gorm's record-not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
