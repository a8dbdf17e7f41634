package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bgitu-quiz/quiz-service/internal/metrics"
	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
)

type quizService struct {
	repo   repositories.Repository
	logger *slog.Logger
	opLog  *ServiceLogger
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger) QuizService {
	return &quizService{
		repo:   repo,
		logger: logger,
		opLog:  NewServiceLogger(logger, "quiz"),
	}
}

// ===== TEST CATALOGUE =====

func (s *quizService) ListTests(ctx context.Context) ([]TestSummary, error) {
	tests, err := s.repo.Test().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	summaries := make([]TestSummary, 0, len(tests))
	for _, test := range tests {
		summaries = append(summaries, TestSummary{
			ID:        formatID(test.ID),
			Title:     test.Name,
			TimeLimit: test.Timer,
		})
	}
	return summaries, nil
}

func (s *quizService) GetTest(ctx context.Context, id uint) (*TestDetail, error) {
	test, err := s.getTestWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}

	blocks := make([]BlockInfo, 0, len(test.Blocks))
	for _, tb := range test.Blocks {
		blocks = append(blocks, BlockInfo{
			ID:             formatID(tb.Block.ID),
			Name:           tb.Block.Name,
			QuestionsCount: tb.NumQuestions,
		})
	}

	ordered := test.OrderedQuestions()
	questions := make([]QuestionView, 0, len(ordered))
	for i := range ordered {
		questions = append(questions, presentQuestion(&ordered[i]))
	}

	return &TestDetail{
		ID:          formatID(test.ID),
		Title:       test.Name,
		Description: test.Description,
		TimeLimit:   test.Timer,
		Blocks:      blocks,
		Questions:   questions,
	}, nil
}

func (s *quizService) GetTestQuestions(ctx context.Context, id uint) (*TestQuestions, error) {
	test, err := s.getTestWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}

	ordered := test.OrderedQuestions()
	questions := make([]QuestionView, 0, len(ordered))
	for i := range ordered {
		questions = append(questions, presentFlatQuestion(&ordered[i]))
	}

	return &TestQuestions{
		ID:          formatID(test.ID),
		Title:       test.Name,
		Description: test.Description,
		TimeLimit:   test.Timer,
		Questions:   questions,
	}, nil
}

// ===== ACCESS =====

// CheckPasscode admits a student when the test has no code and none was typed, or when the
// typed code matches exactly. Typing a code for a test without one is rejected.
func (s *quizService) CheckPasscode(ctx context.Context, id uint, passcode string) (err error) {
	op := s.opLog.WithOperation(ctx, "check_passcode")
	defer func() { op.LogResult(id, "test", err) }()

	test, err := s.repo.Test().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			metrics.RecordPasscodeCheck("not_found")
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}

	if !test.RequiresPasscode() {
		if passcode == "" {
			metrics.RecordPasscodeCheck("open")
			return nil
		}
		metrics.RecordPasscodeCheck("not_required")
		return ErrPasscodeNotRequired
	}

	if test.Codepass != passcode {
		metrics.RecordPasscodeCheck("rejected")
		return ErrInvalidPasscode
	}

	metrics.RecordPasscodeCheck("accepted")
	return nil
}

// ===== HELPERS =====

func (s *quizService) getTestWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	test, err := s.repo.Test().GetWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}
