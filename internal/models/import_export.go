package models

import "time"

// ImportSummary describes the outcome of importing one question file
type ImportSummary struct {
	TestID           uint                    `json:"test_id"`
	TestName         string                  `json:"test_name"`
	TotalRows        int                     `json:"total_rows"`
	SuccessCount     int                     `json:"success_count"`
	SkippedCount     int                     `json:"skipped_count"`
	ErrorCount       int                     `json:"error_count"`
	CreatedQuestions []uint                  `json:"created_questions"`
	Errors           []ImportValidationError `json:"errors"`
	ProcessingTime   time.Duration           `json:"processing_time"`
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// Spreadsheet column headers shared by import and export
const (
	ColumnBlock    = "block"
	ColumnType     = "type"
	ColumnPoints   = "points"
	ColumnQuestion = "question"
	ColumnAnswer   = "answer"
)

var QuestionColumns = []string{ColumnBlock, ColumnType, ColumnPoints, ColumnQuestion, ColumnAnswer}
