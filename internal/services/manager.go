package services

import (
	"log/slog"

	"github.com/bgitu-quiz/quiz-service/internal/events"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/validator"
)

// ServiceManager wires every service over one repository and publisher
type ServiceManager struct {
	quiz         QuizService
	submission   SubmissionService
	importExport ImportExportService
}

func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) *ServiceManager {
	return &ServiceManager{
		quiz:         NewQuizService(repo, logger),
		submission:   NewSubmissionService(repo, publisher, logger, validator),
		importExport: NewImportExportService(repo, publisher, logger, validator),
	}
}

func (m *ServiceManager) Quiz() QuizService {
	return m.quiz
}

func (m *ServiceManager) Submission() SubmissionService {
	return m.submission
}

func (m *ServiceManager) ImportExport() ImportExportService {
	return m.importExport
}
