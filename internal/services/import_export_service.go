package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/events"
	"github.com/bgitu-quiz/quiz-service/internal/metrics"
	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
	"github.com/bgitu-quiz/quiz-service/internal/validator"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	// Export formats
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	defaultTestName   = "Импортированный тест"
	defaultTestTimer  = 30
	maxNameSuffix     = 1000
	questionSheetName = "Questions"
	resultSheetName   = "Results"
	timeLayout        = "2006-01-02 15:04:05"
)

var requiredImportColumns = []string{models.ColumnBlock, models.ColumnType, models.ColumnQuestion, models.ColumnAnswer}

var resultColumns = []string{
	"Student", "Group", "Total Score", "Max Score", "Percent",
	"Closed Score", "Open Score", "Started At", "Finished At", "Duration (sec)",
}

type importExportService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	opLog     *ServiceLogger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		opLog:     NewServiceLogger(logger, "import_export"),
		validator: validator,
	}
}

// importRow is a data row that passed validation
type importRow struct {
	row      int
	question *models.Question
}

// ===== IMPORT OPERATIONS =====

// ImportTestFromFile creates a new test from a .csv or .xlsx upload
func (s *importExportService) ImportTestFromFile(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	s.logger.Info("Starting file import", "filename", filename)

	switch ext {
	case ".csv":
		return s.ImportTestFromCSV(ctx, reader, filename)
	case ".xlsx", ".xlsm":
		return s.ImportTestFromExcel(ctx, reader, filename)
	default:
		metrics.RecordImport("rejected")
		return nil, fmt.Errorf("%w: %q", ErrImportUnsupportedFormat, ext)
	}
}

func (s *importExportService) ImportTestFromCSV(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		metrics.RecordImport("rejected")
		return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrBadRequest, err)
	}

	return s.importRows(ctx, records, filename)
}

func (s *importExportService) ImportTestFromExcel(ctx context.Context, reader io.Reader, filename string) (*models.ImportSummary, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		metrics.RecordImport("rejected")
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrBadRequest, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		metrics.RecordImport("rejected")
		return nil, ErrImportEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows, filename)
}

// importRows validates every data row, then creates the test with its blocks and questions
// in one transaction. The test is named after the file stem. Rows without a block are
// skipped; rows with errors are reported.
func (s *importExportService) importRows(ctx context.Context, rows [][]string, filename string) (summary *models.ImportSummary, err error) {
	start := time.Now()
	op := s.opLog.WithOperation(ctx, "import_test")
	defer func() {
		var testID uint
		if summary != nil {
			testID = summary.TestID
		}
		op.LogResult(testID, "test", err)
	}()

	if len(rows) < 2 {
		metrics.RecordImport("rejected")
		return nil, ErrImportEmptyFile
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		header = strings.TrimPrefix(header, "\ufeff")
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredImportColumns {
		if _, exists := headerMap[col]; !exists {
			metrics.RecordImport("rejected")
			return nil, fmt.Errorf("%w: %s", ErrImportMissingColumn, col)
		}
	}

	summary = &models.ImportSummary{
		TotalRows:        len(rows) - 1,
		CreatedQuestions: []uint{},
		Errors:           []models.ImportValidationError{},
	}

	var valid []importRow
	for i, record := range rows[1:] {
		rowNum := i + 2
		question, rowErrors, skip := s.parseRow(record, headerMap, rowNum)
		switch {
		case skip:
			summary.SkippedCount++
		case len(rowErrors) > 0:
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
		default:
			valid = append(valid, importRow{row: rowNum, question: question})
		}
	}

	if len(valid) == 0 {
		metrics.RecordImport("rejected")
		return nil, NewBusinessRuleError(ErrImportNothingImported,
			fmt.Sprintf("none of the %d rows could be imported", summary.TotalRows),
			map[string]interface{}{"errors": summary.Errors, "skipped": summary.SkippedCount})
	}

	testName := testNameFromFile(filename)

	var test *models.Test
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		name, err := s.uniqueTestName(ctx, tx, testName)
		if err != nil {
			return err
		}

		test = &models.Test{Name: name, Timer: defaultTestTimer}
		if err := s.repo.Test().Create(ctx, tx, test); err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}

		created, err := s.saveImportedQuestions(ctx, tx, test.ID, valid)
		if err != nil {
			return err
		}
		summary.CreatedQuestions = created
		return nil
	})
	if err != nil {
		metrics.RecordImport("failed")
		return nil, err
	}

	if err := s.repo.Test().InvalidateCache(ctx, test.ID); err != nil {
		s.logger.Warn("Failed to invalidate test cache", "test_id", test.ID, "error", err)
	}

	summary.TestID = test.ID
	summary.TestName = test.Name
	summary.SuccessCount = len(valid)
	summary.ProcessingTime = time.Since(start)

	status := "success"
	if summary.ErrorCount > 0 {
		status = "partial"
	}
	metrics.RecordImport(status)
	s.publishImported(ctx, summary, filepath.Base(filename))

	s.logger.Info("Test import completed",
		"test_id", summary.TestID,
		"test_name", summary.TestName,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"skipped_count", summary.SkippedCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

// saveImportedQuestions links blocks and questions to the test in row order and returns the ids
// of newly inserted questions. Each block records how many distinct questions it contributed.
func (s *importExportService) saveImportedQuestions(ctx context.Context, tx *gorm.DB, testID uint, rows []importRow) ([]uint, error) {
	blocks := make(map[string]*models.Block)
	var blockOrder []*models.Block
	blockQuestions := make(map[uint][]uint)
	var questionIDs []uint
	created := []uint{}

	for _, r := range rows {
		name := r.question.BlockName
		block, ok := blocks[name]
		if !ok {
			var err error
			block, err = s.repo.Question().GetOrCreateBlock(ctx, tx, name)
			if err != nil {
				return nil, fmt.Errorf("failed to get block %q: %w", name, err)
			}
			blocks[name] = block
			blockOrder = append(blockOrder, block)
		}

		r.question.BlockID = &block.ID
		inserted, err := s.repo.Question().FindOrCreate(ctx, tx, r.question)
		if err != nil {
			return nil, fmt.Errorf("failed to save question from row %d: %w", r.row, err)
		}
		if inserted {
			created = append(created, r.question.ID)
		}

		questionIDs = append(questionIDs, r.question.ID)
		blockQuestions[block.ID] = append(blockQuestions[block.ID], r.question.ID)
	}

	for _, block := range blockOrder {
		count := len(lo.Uniq(blockQuestions[block.ID]))
		if err := s.repo.Test().AddBlock(ctx, tx, testID, block.ID, count); err != nil {
			return nil, fmt.Errorf("failed to link block %q: %w", block.Name, err)
		}
	}

	if err := s.repo.Test().LinkQuestions(ctx, tx, testID, lo.Uniq(questionIDs)); err != nil {
		return nil, fmt.Errorf("failed to link questions: %w", err)
	}

	return created, nil
}

// uniqueTestName appends _1, _2, ... to base until no test has that name
func (s *importExportService) uniqueTestName(ctx context.Context, tx *gorm.DB, base string) (string, error) {
	name := base
	for i := 1; i <= maxNameSuffix; i++ {
		exists, err := s.repo.Test().ExistsByName(ctx, tx, name)
		if err != nil {
			return "", fmt.Errorf("failed to check test name: %w", err)
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return "", fmt.Errorf("no free test name for %q after %d attempts", base, maxNameSuffix)
}

// ===== EXPORT OPERATIONS =====

// ExportTestQuestions writes the test's questions with the import headers, so the file can be
// imported again.
func (s *importExportService) ExportTestQuestions(ctx context.Context, testID uint, format string) ([]byte, error) {
	test, err := s.repo.Test().GetWithQuestions(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions := test.OrderedQuestions()
	records := make([][]interface{}, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		records = append(records, []interface{}{q.BlockLabel(), q.Type, q.Points, q.Text, q.Answer})
	}

	headers := lo.Map(models.QuestionColumns, func(col string, _ int) interface{} { return col })

	switch strings.ToLower(format) {
	case "", FormatXLSX:
		return writeWorkbook(questionSheetName, headers, records)
	case FormatCSV:
		return writeCSV(headers, records)
	default:
		return nil, fmt.Errorf("%w: %q", ErrImportUnsupportedFormat, format)
	}
}

// ExportResults writes every stored result of the test, oldest first
func (s *importExportService) ExportResults(ctx context.Context, testID uint) ([]byte, error) {
	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	results, _, err := s.repo.Result().ListByTest(ctx, nil, testID, repositories.ResultFilters{
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get test results: %w", err)
	}

	records := make([][]interface{}, 0, len(results))
	for _, r := range results {
		records = append(records, []interface{}{
			r.StudentFullName,
			r.StudentGroup,
			r.TotalScore,
			r.MaxScore,
			r.Percent,
			r.ClosedScore,
			r.OpenScore,
			r.StartedAt.Format(timeLayout),
			r.FinishedAt.Format(timeLayout),
			r.DurationSec,
		})
	}

	headers := lo.Map(resultColumns, func(col string, _ int) interface{} { return col })
	return writeWorkbook(resultSheetName, headers, records)
}

// ===== HELPER FUNCTIONS =====

// parseRow builds a question from one data row. skip is set for rows without a block.
func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int) (*models.Question, []models.ImportValidationError, bool) {
	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	blockName := getColumn(models.ColumnBlock)
	if blockName == "" {
		return nil, nil, true
	}

	var errors []models.ImportValidationError

	points := 1
	if raw := getColumn(models.ColumnPoints); raw != "" {
		parsed, err := parsePoints(raw)
		if err != nil {
			errors = append(errors, models.ImportValidationError{
				Row:     rowNum,
				Column:  models.ColumnPoints,
				Message: "must be a whole number",
				Value:   raw,
				Code:    "invalid_points",
			})
		}
		points = parsed
	}

	question := &models.Question{
		BlockName: blockName,
		Type:      string(scoring.ParseQuestionType(getColumn(models.ColumnType))),
		Points:    points,
		Text:      getColumn(models.ColumnQuestion),
		Answer:    getColumn(models.ColumnAnswer),
	}

	if len(errors) == 0 {
		for _, verr := range s.validator.Question().ValidateQuestion(question) {
			errors = append(errors, models.ImportValidationError{
				Row:     rowNum,
				Column:  verr.Field,
				Message: verr.Message,
				Value:   fmt.Sprint(verr.Value),
				Code:    verr.Rule,
			})
		}
	}

	return question, errors, false
}

// testNameFromFile returns the file name without directory and extension
func testNameFromFile(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return defaultTestName
	}
	return name
}

// parsePoints accepts integers and spreadsheet floats with no fractional part ("2.0")
func parsePoints(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid points %q", raw)
	}
	return int(f), nil
}

func writeWorkbook(sheetName string, headers []interface{}, records [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write Excel headers: %w", err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := record
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write Excel row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCSV(headers []interface{}, records [][]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	toStrings := func(values []interface{}) []string {
		return lo.Map(values, func(v interface{}, _ int) string { return fmt.Sprint(v) })
	}

	if err := w.Write(toStrings(headers)); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := w.Write(toStrings(record)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) publishImported(ctx context.Context, summary *models.ImportSummary, sourceFile string) {
	if s.publisher == nil {
		return
	}

	event := events.NewTestImportedEvent(events.TestImportedEvent{
		TestID:        summary.TestID,
		TestName:      summary.TestName,
		SourceFile:    sourceFile,
		QuestionCount: summary.SuccessCount,
		ErrorCount:    summary.ErrorCount,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.RecordEvent(string(event.Type), "failed")
		s.logger.Error("Failed to publish import event", "test_id", summary.TestID, "error", err)
		return
	}
	metrics.RecordEvent(string(event.Type), "published")
}
