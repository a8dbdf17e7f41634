package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/stretchr/testify/mock"
)

func discardLogger() utils.Logger {
	return utils.NewLogger(io.Discard, slog.LevelError, false)
}

// ===== SERVICE MOCKS =====

type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) ListTests(ctx context.Context) ([]services.TestSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.TestSummary), args.Error(1)
}

func (m *MockQuizService) GetTest(ctx context.Context, id uint) (*services.TestDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TestDetail), args.Error(1)
}

func (m *MockQuizService) GetTestQuestions(ctx context.Context, id uint) (*services.TestQuestions, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TestQuestions), args.Error(1)
}

func (m *MockQuizService) CheckPasscode(ctx context.Context, id uint, passcode string) error {
	args := m.Called(ctx, id, passcode)
	return args.Error(0)
}

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, req *services.SubmitRequest) (*services.SubmitResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmitResponse), args.Error(1)
}

func (m *MockSubmissionService) ListResults(ctx context.Context, testID uint, filters repositories.ResultFilters) (*services.ResultListResponse, error) {
	args := m.Called(ctx, testID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ResultListResponse), args.Error(1)
}

type MockImportExportService struct {
	mock.Mock
}

func (m *MockImportExportService) ImportTestFromFile(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	args := m.Called(ctx, reader, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockImportExportService) ImportTestFromCSV(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	args := m.Called(ctx, reader, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockImportExportService) ImportTestFromExcel(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	args := m.Called(ctx, reader, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockImportExportService) ExportTestQuestions(ctx context.Context, testID uint, format string) ([]byte, error) {
	args := m.Called(ctx, testID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImportExportService) ExportResults(ctx context.Context, testID uint) ([]byte, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// mockServices implements ServiceProvider over the mocks
type mockServices struct {
	quiz         *MockQuizService
	submission   *MockSubmissionService
	importExport *MockImportExportService
}

func newMockServices() *mockServices {
	return &mockServices{
		quiz:         new(MockQuizService),
		submission:   new(MockSubmissionService),
		importExport: new(MockImportExportService),
	}
}

func (s *mockServices) Quiz() services.QuizService                 { return s.quiz }
func (s *mockServices) Submission() services.SubmissionService     { return s.submission }
func (s *mockServices) ImportExport() services.ImportExportService { return s.importExport }

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
