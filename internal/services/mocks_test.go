package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository aggregates the repository mocks. WithTransaction runs fn with a nil tx.
type MockRepository struct {
	mock.Mock
	tests     *MockTestRepository
	questions *MockQuestionRepository
	results   *MockResultRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		tests:     &MockTestRepository{},
		questions: &MockQuestionRepository{},
		results:   &MockResultRepository{},
	}
}

func (m *MockRepository) Test() repositories.TestRepository         { return m.tests }
func (m *MockRepository) Question() repositories.QuestionRepository { return m.questions }
func (m *MockRepository) Result() repositories.ResultRepository     { return m.results }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.Mock.AssertExpectations(t)
	m.tests.AssertExpectations(t)
	m.questions.AssertExpectations(t)
	m.results.AssertExpectations(t)
}

// MockTestRepository is a mock implementation of TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	args := m.Called(ctx, tx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.Test, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Test), args.Error(1)
}

func (m *MockTestRepository) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	args := m.Called(ctx, tx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockTestRepository) AddBlock(ctx context.Context, tx *gorm.DB, testID, blockID uint, numQuestions int) error {
	args := m.Called(ctx, tx, testID, blockID, numQuestions)
	return args.Error(0)
}

func (m *MockTestRepository) LinkQuestions(ctx context.Context, tx *gorm.DB, testID uint, questionIDs []uint) error {
	args := m.Called(ctx, tx, testID, questionIDs)
	return args.Error(0)
}

func (m *MockTestRepository) InvalidateCache(ctx context.Context, testID uint) error {
	args := m.Called(ctx, testID)
	return args.Error(0)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetOrCreateBlock(ctx context.Context, tx *gorm.DB, name string) (*models.Block, error) {
	args := m.Called(ctx, tx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Block), args.Error(1)
}

func (m *MockQuestionRepository) FindOrCreate(ctx context.Context, tx *gorm.DB, question *models.Question) (bool, error) {
	args := m.Called(ctx, tx, question)
	return args.Bool(0), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	args := m.Called(ctx, tx, result)
	return args.Error(0)
}

func (m *MockResultRepository) ListByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	args := m.Called(ctx, tx, testID, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.TestResult), args.Get(1).(int64), args.Error(2)
}

// fixtureTest builds a test whose questions are linked in the given order
func fixtureTest(id uint, name, codepass string, questions ...models.Question) *models.Test {
	test := &models.Test{ID: id, Name: name, Timer: 45, Codepass: codepass, Description: "Итоговый тест"}
	for i := range questions {
		q := questions[i]
		test.TestQuestions = append(test.TestQuestions, models.TestQuestion{
			ID:         uint(i + 1),
			TestID:     id,
			QuestionID: q.ID,
			Question:   &q,
		})
	}
	return test
}
