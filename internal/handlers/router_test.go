package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svcs *mockServices, health HealthChecker, cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandlerManager(svcs, health, cfg, discardLogger()).SetupRoutes(router)
	return router
}

func defaultRouterConfig() RouterConfig {
	return RouterConfig{AllowedOrigins: []string{"*"}, MaxUploadBytes: 1 << 20}
}

func perform(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===== TESTS =====

func TestListTests(t *testing.T) {
	svcs := newMockServices()
	svcs.quiz.On("ListTests", mock.Anything).Return([]services.TestSummary{
		{ID: "1", Title: "Физика", TimeLimit: 30},
		{ID: "2", Title: "Химия", TimeLimit: 45},
	}, nil)

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/api/tests", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []services.TestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "Химия", got[1].Title)
	svcs.quiz.AssertExpectations(t)
}

func TestGetTest(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(*MockQuizService)
		wantStatus int
		wantMsg    string
	}{
		{
			name: "found",
			path: "/api/tests/7",
			setup: func(m *MockQuizService) {
				m.On("GetTest", mock.Anything, uint(7)).Return(&services.TestDetail{ID: "7", Title: "Физика"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/api/tests/8",
			setup: func(m *MockQuizService) {
				m.On("GetTest", mock.Anything, uint(8)).Return(nil, fmt.Errorf("load: %w", services.ErrTestNotFound))
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Test not found",
		},
		{
			name:       "non numeric id",
			path:       "/api/tests/abc",
			setup:      func(*MockQuizService) {},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid id",
		},
		{
			name:       "zero id",
			path:       "/api/tests/0",
			setup:      func(*MockQuizService) {},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid id",
		},
		{
			name: "internal error",
			path: "/api/tests/9",
			setup: func(m *MockQuizService) {
				m.On("GetTest", mock.Anything, uint(9)).Return(nil, errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svcs := newMockServices()
			tc.setup(svcs.quiz)

			w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, decodeError(t, w).Message)
			}
			svcs.quiz.AssertExpectations(t)
		})
	}
}

func TestGetTestQuestions(t *testing.T) {
	svcs := newMockServices()
	svcs.quiz.On("GetTestQuestions", mock.Anything, uint(3)).Return(&services.TestQuestions{
		ID:        "3",
		Questions: []services.QuestionView{{ID: "11", Type: "open", Text: "Что такое ток?", Points: 2}},
	}, nil)

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/api/tests/3/questions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"Что такое ток?"`)
	assert.NotContains(t, w.Body.String(), "answer")
}

func TestCheckPasscode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		passcode   string
		err        error
		wantStatus int
	}{
		{name: "accepted", body: `{"passcode":"secret"}`, passcode: "secret", wantStatus: http.StatusOK},
		{name: "empty body means empty passcode", body: "", passcode: "", wantStatus: http.StatusOK},
		{name: "rejected", body: `{"passcode":"guess"}`, passcode: "guess", err: services.ErrInvalidPasscode, wantStatus: http.StatusUnauthorized},
		{name: "not required", body: `{"passcode":"x"}`, passcode: "x", err: services.ErrPasscodeNotRequired, wantStatus: http.StatusUnauthorized},
		{name: "unknown test", body: `{"passcode":""}`, passcode: "", err: services.ErrTestNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svcs := newMockServices()
			svcs.quiz.On("CheckPasscode", mock.Anything, uint(5), tc.passcode).Return(tc.err)

			w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), jsonRequest(http.MethodPost, "/api/tests/5/passcode", tc.body))

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.err == nil {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
			svcs.quiz.AssertExpectations(t)
		})
	}
}

func TestCheckPasscode_MalformedBody(t *testing.T) {
	svcs := newMockServices()

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), jsonRequest(http.MethodPost, "/api/tests/5/passcode", `{"passcode":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svcs.quiz.AssertNotCalled(t, "CheckPasscode", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit(t *testing.T) {
	body := `{
		"testId": 3,
		"answers": [
			{"questionId": 11, "answer": "a"},
			{"questionId": "12", "answer": ["a", "c"]}
		],
		"studentInfo": {"fullName": "Иванов Иван", "group": "ИС-21"},
		"durationSec": 600
	}`

	svcs := newMockServices()
	svcs.submission.On("Submit", mock.Anything, mock.MatchedBy(func(req *services.SubmitRequest) bool {
		return req.TestID.String() == "3" &&
			len(req.Answers) == 2 &&
			req.Answers[1].QuestionID.String() == "12" &&
			req.Answers[1].Answer.Kind() == scoring.AnswerStringList &&
			req.StudentInfo.FullName == "Иванов Иван" &&
			req.DurationSec == 600
	})).Return(&services.SubmitResponse{
		ResultID:  42,
		TestID:    "3",
		TestTitle: "Физика",
		SubmissionResult: scoring.SubmissionResult{
			TotalScore: 3, MaxScore: 4, Percent: 75, ClosedScore: 3,
		},
	}, nil)

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), jsonRequest(http.MethodPost, "/api/submit", body))

	require.Equal(t, http.StatusCreated, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(42), got["resultId"])
	assert.Equal(t, float64(75), got["percent"])
	svcs.submission.AssertExpectations(t)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "malformed json", body: `{"testId":`, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request payload"},
		{
			name:       "validation",
			body:       `{"testId":3,"answers":[],"studentInfo":{"fullName":""}}`,
			err:        services.ValidationErrors{{Field: "fullName", Message: "fullName is required"}},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation failed",
		},
		{
			name:       "unknown test",
			body:       `{"testId":99,"answers":[],"studentInfo":{"fullName":"Петров"}}`,
			err:        services.ErrTestNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Test not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svcs := newMockServices()
			if tc.err != nil {
				svcs.submission.On("Submit", mock.Anything, mock.Anything).Return(nil, tc.err)
			}

			w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), jsonRequest(http.MethodPost, "/api/submit", tc.body))

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantMsg, decodeError(t, w).Message)
			svcs.submission.AssertExpectations(t)
		})
	}
}

func TestListResults_BindsFilters(t *testing.T) {
	svcs := newMockServices()
	want := repositories.ResultFilters{Group: "ИС-21", Limit: 10, Offset: 20, SortBy: "percent", SortOrder: "desc"}
	svcs.submission.On("ListResults", mock.Anything, uint(3), want).Return(&services.ResultListResponse{
		TestID: "3", Total: 1, Limit: 10, Offset: 20,
		Results: []services.ResultView{{ID: 1, StudentFullName: "Иванов Иван", Percent: 80}},
	}, nil)

	path := "/api/tests/3/results?group=%D0%98%D0%A1-21&limit=10&offset=20&sort_by=percent&sort_order=desc"
	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got services.ResultListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Total)
	svcs.submission.AssertExpectations(t)
}

func TestListResults_InvalidLimit(t *testing.T) {
	svcs := newMockServices()

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/api/tests/3/results?limit=ten", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportResults(t *testing.T) {
	svcs := newMockServices()
	svcs.importExport.On("ExportResults", mock.Anything, uint(3)).Return([]byte("PK-workbook"), nil)

	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/api/tests/3/results/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "results_3.xlsx")
	assert.Equal(t, "PK-workbook", w.Body.String())
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/tests/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportTest(t *testing.T) {
	svcs := newMockServices()
	svcs.importExport.On("ImportTestFromFile", mock.Anything, mock.Anything, "physics.csv").Return(&models.ImportSummary{
		TestID: 12, TestName: "physics", TotalRows: 2, SuccessCount: 2, CreatedQuestions: []uint{1, 2},
	}, nil)

	csv := []byte("block,type,points,question,answer\nМеханика,open,1,Что такое сила?,Векторная величина\n")
	w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), multipartUpload(t, "file", "physics.csv", csv))

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.ImportSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint(12), got.TestID)
	assert.Equal(t, 2, got.SuccessCount)
	svcs.importExport.AssertExpectations(t)
}

func TestImportTest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		err        error
		wantStatus int
	}{
		{name: "missing file", field: "", wantStatus: http.StatusBadRequest},
		{
			name:       "unsupported format",
			field:      "file",
			err:        fmt.Errorf("%w: %q", services.ErrImportUnsupportedFormat, ".txt"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "nothing imported",
			field:      "file",
			err:        services.NewBusinessRuleError(services.ErrImportNothingImported, "none of the 2 rows could be imported", nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svcs := newMockServices()
			if tc.err != nil {
				svcs.importExport.On("ImportTestFromFile", mock.Anything, mock.Anything, "questions.txt").Return(nil, tc.err)
			}

			w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), multipartUpload(t, tc.field, "questions.txt", []byte("data")))

			assert.Equal(t, tc.wantStatus, w.Code)
			svcs.importExport.AssertExpectations(t)
		})
	}
}

func TestImportTest_TooLarge(t *testing.T) {
	svcs := newMockServices()
	cfg := RouterConfig{AllowedOrigins: []string{"*"}, MaxUploadBytes: 64}

	w := perform(newTestRouter(svcs, nil, cfg), multipartUpload(t, "file", "big.csv", bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svcs.importExport.AssertNotCalled(t, "ImportTestFromFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportTest(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		format          string
		wantContentType string
	}{
		{name: "default xlsx", query: "", format: services.FormatXLSX, wantContentType: xlsxContentType},
		{name: "csv", query: "?format=CSV", format: services.FormatCSV, wantContentType: "text/csv; charset=utf-8"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svcs := newMockServices()
			svcs.importExport.On("ExportTestQuestions", mock.Anything, uint(4), tc.format).Return([]byte("data"), nil)

			w := perform(newTestRouter(svcs, nil, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/api/admin/tests/4/export"+tc.query, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantContentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Header().Get("Content-Disposition"), "test_4."+tc.format)
			svcs.importExport.AssertExpectations(t)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantBody: "healthy"},
		{name: "database down", pingErr: errors.New("dial tcp: connection refused"), wantStatus: http.StatusServiceUnavailable, wantBody: "unhealthy"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			health := new(MockHealthChecker)
			health.On("Ping", mock.Anything).Return(tc.pingErr)

			w := perform(newTestRouter(newMockServices(), health, defaultRouterConfig()), httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantBody, body["status"])
			health.AssertExpectations(t)
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	svcs := newMockServices()
	svcs.quiz.On("ListTests", mock.Anything).Return([]services.TestSummary{}, nil)
	router := newTestRouter(svcs, nil, defaultRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/tests", nil)
	req.Header.Set(utils.RequestIDHeader, "req-123")
	w := perform(router, req)
	assert.Equal(t, "req-123", w.Header().Get(utils.RequestIDHeader))

	w = perform(router, httptest.NewRequest(http.MethodGet, "/api/tests", nil))
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestCorsMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://quiz.example.org", wantHeader: "*"},
		{name: "listed origin", origins: []string{"https://quiz.example.org"}, origin: "https://quiz.example.org", wantHeader: "https://quiz.example.org"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := RouterConfig{AllowedOrigins: tc.origins, MaxUploadBytes: 1 << 20}
			router := newTestRouter(newMockServices(), nil, cfg)

			req := httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := perform(router, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tc.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
