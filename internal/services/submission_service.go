package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/events"
	"github.com/bgitu-quiz/quiz-service/internal/metrics"
	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
	"github.com/bgitu-quiz/quiz-service/internal/validator"
	"gorm.io/datatypes"
)

const (
	defaultResultLimit = 50
	maxResultLimit     = 500
)

type submissionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	opLog     *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewSubmissionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) SubmissionService {
	return &submissionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		opLog:     NewServiceLogger(logger, "submission"),
		validator: validator,
		now:       time.Now,
	}
}

// ===== SUBMISSION =====

// Submit scores every question of the test against the submitted answers and stores the result.
// The result event is published after the row is stored; a publish failure does not fail the call.
func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest) (resp *SubmitResponse, err error) {
	var testID uint
	op := s.opLog.WithOperation(ctx, "submit")
	defer func() { op.LogResult(testID, "test_result", err) }()

	if err = s.validator.Validate(req); err != nil {
		metrics.RecordSubmission("invalid")
		return nil, err
	}

	testID, err = parseNumericID("testId", req.TestID)
	if err != nil {
		metrics.RecordSubmission("invalid")
		return nil, err
	}

	s.logger.Info("Scoring submission",
		"test_id", testID,
		"answers_count", len(req.Answers),
		"student_group", req.StudentInfo.Group)

	test, err := s.repo.Test().GetWithQuestions(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		metrics.RecordSubmission("failed")
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions := models.ToScoringQuestions(test.OrderedQuestions())
	scored := scoring.ScoreSubmission(questions, toScoringAnswers(req.Answers))

	details, err := json.Marshal(scored.Results)
	if err != nil {
		metrics.RecordSubmission("failed")
		return nil, fmt.Errorf("failed to encode result details: %w", err)
	}

	finishedAt := s.now().UTC()
	result := &models.TestResult{
		TestID:          test.ID,
		StudentFullName: strings.TrimSpace(req.StudentInfo.FullName),
		StudentGroup:    strings.TrimSpace(req.StudentInfo.Group),
		TotalScore:      scored.TotalScore,
		MaxScore:        scored.MaxScore,
		Percent:         scored.Percent,
		ClosedScore:     scored.ClosedScore,
		OpenScore:       scored.OpenScore,
		StartedAt:       finishedAt.Add(-time.Duration(req.DurationSec) * time.Second),
		FinishedAt:      finishedAt,
		DurationSec:     req.DurationSec,
		Details:         datatypes.JSON(details),
		CreatedAt:       finishedAt,
	}

	if err = s.repo.Result().Create(ctx, nil, result); err != nil {
		metrics.RecordSubmission("failed")
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	metrics.RecordSubmission("scored")
	metrics.ObserveSubmissionPercent(scored.Percent)
	for _, r := range scored.Results {
		metrics.ObserveQuestionScore(string(r.Type), r.Score, r.MaxScore)
	}

	s.publishResult(ctx, test, result)

	s.logger.Info("Submission scored",
		"test_id", test.ID,
		"result_id", result.ID,
		"total_score", scored.TotalScore,
		"max_score", scored.MaxScore)

	return &SubmitResponse{
		ResultID:         result.ID,
		TestID:           formatID(test.ID),
		TestTitle:        test.Name,
		StudentInfo:      StudentInfo{FullName: result.StudentFullName, Group: result.StudentGroup},
		DurationSec:      result.DurationSec,
		FinishedAt:       finishedAt,
		SubmissionResult: scored,
	}, nil
}

// ===== RESULTS =====

func (s *submissionService) ListResults(ctx context.Context, testID uint, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultResultLimit
	}
	if filters.Limit > maxResultLimit {
		filters.Limit = maxResultLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	rows, total, err := s.repo.Result().ListByTest(ctx, nil, testID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	views := make([]ResultView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toResultView(row))
	}

	return &ResultListResponse{
		TestID:  formatID(testID),
		Results: views,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== HELPERS =====

func (s *submissionService) publishResult(ctx context.Context, test *models.Test, result *models.TestResult) {
	if s.publisher == nil {
		return
	}

	event := events.NewResultSubmittedEvent(events.ResultSubmittedEvent{
		ResultID:        result.ID,
		TestID:          test.ID,
		TestName:        test.Name,
		StudentFullName: result.StudentFullName,
		StudentGroup:    result.StudentGroup,
		TotalScore:      result.TotalScore,
		MaxScore:        result.MaxScore,
		Percent:         result.Percent,
		ClosedScore:     result.ClosedScore,
		OpenScore:       result.OpenScore,
		DurationSec:     result.DurationSec,
		FinishedAt:      result.FinishedAt,
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.RecordEvent(string(event.Type), "failed")
		s.logger.Error("Failed to publish result event",
			"result_id", result.ID,
			"test_id", test.ID,
			"error", err)
		return
	}
	metrics.RecordEvent(string(event.Type), "published")
}

func toScoringAnswers(submitted []SubmittedAnswer) []scoring.Answer {
	answers := make([]scoring.Answer, 0, len(submitted))
	for _, a := range submitted {
		answers = append(answers, scoring.Answer{
			QuestionID: strings.TrimSpace(a.QuestionID.String()),
			Value:      a.Answer,
		})
	}
	return answers
}

func toResultView(row *models.TestResult) ResultView {
	return ResultView{
		ID:              row.ID,
		StudentFullName: row.StudentFullName,
		StudentGroup:    row.StudentGroup,
		TotalScore:      row.TotalScore,
		MaxScore:        row.MaxScore,
		Percent:         row.Percent,
		ClosedScore:     row.ClosedScore,
		OpenScore:       row.OpenScore,
		StartedAt:       row.StartedAt,
		FinishedAt:      row.FinishedAt,
		DurationSec:     row.DurationSec,
	}
}

// parseNumericID reads a positive integer id sent as a JSON number or string
func parseNumericID(field string, n json.Number) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(n.String()), 10, 64)
	if err != nil || id == 0 {
		return 0, NewValidationError(field, "must be a positive integer", n.String())
	}
	return uint(id), nil
}
