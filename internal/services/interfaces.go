package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
)

// QuizService serves tests to students
type QuizService interface {
	ListTests(ctx context.Context) ([]TestSummary, error)
	GetTest(ctx context.Context, id uint) (*TestDetail, error)
	GetTestQuestions(ctx context.Context, id uint) (*TestQuestions, error)
	CheckPasscode(ctx context.Context, id uint, passcode string) error
}

// SubmissionService scores and stores finished attempts
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)
	ListResults(ctx context.Context, testID uint, filters repositories.ResultFilters) (*ResultListResponse, error)
}

// ImportExportService moves tests and results in and out of spreadsheets
type ImportExportService interface {
	ImportTestFromFile(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error)
	ImportTestFromCSV(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error)
	ImportTestFromExcel(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error)

	ExportTestQuestions(ctx context.Context, testID uint, format string) ([]byte, error)
	ExportResults(ctx context.Context, testID uint) ([]byte, error)
}

// ===== TEST DTOs =====

// TestSummary is one entry of the public test list
type TestSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TimeLimit int    `json:"timeLimit"`
}

type BlockInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	QuestionsCount int    `json:"questionsCount"`
}

// MatchingPairs holds the two columns of a pairs question as shown to the student
type MatchingPairs struct {
	Terms       []string `json:"terms"`
	Definitions []string `json:"definitions"`
}

// QuestionView is a question as sent to the client. It never carries the answer key,
// except for image questions where the stored answer is the image location.
type QuestionView struct {
	ID           string         `json:"id"`
	Block        string         `json:"block"`
	Type         string         `json:"type"`
	OriginalType string         `json:"originalType"`
	Text         string         `json:"text"`
	Options      []string       `json:"options,omitempty"`
	Pairs        *MatchingPairs `json:"pairs,omitempty"`
	VariantsHTML string         `json:"variantsHtml,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Points       int            `json:"points"`
}

type TestDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TimeLimit   int            `json:"timeLimit"`
	Blocks      []BlockInfo    `json:"blocks"`
	Questions   []QuestionView `json:"questions"`
}

type TestQuestions struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TimeLimit   int            `json:"timeLimit"`
	Questions   []QuestionView `json:"questions"`
}

type PasscodeRequest struct {
	Passcode string `json:"passcode"`
}

// ===== SUBMISSION DTOs =====

type StudentInfo struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Group    string `json:"group" validate:"max=100"`
}

// SubmittedAnswer accepts the question id as a JSON number or string
type SubmittedAnswer struct {
	QuestionID json.Number         `json:"questionId" validate:"required"`
	Answer     scoring.AnswerValue `json:"answer"`
}

type SubmitRequest struct {
	TestID      json.Number       `json:"testId" validate:"required"`
	Answers     []SubmittedAnswer `json:"answers" validate:"dive"`
	StudentInfo StudentInfo       `json:"studentInfo"`
	DurationSec int               `json:"durationSec" validate:"gte=0"`
}

type SubmitResponse struct {
	ResultID    uint        `json:"resultId"`
	TestID      string      `json:"testId"`
	TestTitle   string      `json:"testTitle"`
	StudentInfo StudentInfo `json:"studentInfo"`
	DurationSec int         `json:"durationSec"`
	FinishedAt  time.Time   `json:"finishedAt"`

	scoring.SubmissionResult
}

// ResultView is a stored result without the per-question details
type ResultView struct {
	ID              uint      `json:"id"`
	StudentFullName string    `json:"studentFullName"`
	StudentGroup    string    `json:"studentGroup"`
	TotalScore      float64   `json:"totalScore"`
	MaxScore        float64   `json:"maxScore"`
	Percent         float64   `json:"percent"`
	ClosedScore     float64   `json:"closedScore"`
	OpenScore       float64   `json:"openScore"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	DurationSec     int       `json:"durationSec"`
}

type ResultListResponse struct {
	TestID  string       `json:"testId"`
	Results []ResultView `json:"results"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}
