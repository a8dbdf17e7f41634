package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SubmissionTotal tracks submissions by status (scored or failed)
	SubmissionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submission_total",
			Help: "Total number of test submissions by status",
		},
		[]string{"status"},
	)

	SubmissionPercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_submission_percent",
			Help:    "Distribution of submission percentages",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// QuestionScoreRatio tracks score/maxScore per question type
	QuestionScoreRatio = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_question_score_ratio",
			Help:    "Ratio of awarded to available points per question type",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 1},
		},
		[]string{"type"},
	)

	PasscodeCheckTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_passcode_check_total",
			Help: "Total number of passcode checks by outcome",
		},
		[]string{"outcome"},
	)

	ImportTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_import_total",
			Help: "Total number of question file imports by status",
		},
		[]string{"status"},
	)

	// EventTotal tracks published events by type and status
	EventTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_event_total",
			Help: "Total number of published events by event type and status",
		},
		[]string{"event_type", "status"},
	)

	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)
)

func RecordSubmission(status string) {
	SubmissionTotal.WithLabelValues(status).Inc()
}

func ObserveSubmissionPercent(percent float64) {
	SubmissionPercent.Observe(percent)
}

// ObserveQuestionScore records a question's score ratio. Questions worth nothing are skipped.
func ObserveQuestionScore(questionType string, score, maxScore float64) {
	if maxScore <= 0 {
		return
	}
	QuestionScoreRatio.WithLabelValues(questionType).Observe(score / maxScore)
}

func RecordPasscodeCheck(outcome string) {
	PasscodeCheckTotal.WithLabelValues(outcome).Inc()
}

func RecordImport(status string) {
	ImportTotal.WithLabelValues(status).Inc()
}

func RecordEvent(eventType, status string) {
	EventTotal.WithLabelValues(eventType, status).Inc()
}

// Middleware records request counts and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
