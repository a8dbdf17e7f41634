package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the quiz service emits
type EventType string

const (
	EventResultSubmitted EventType = "result.submitted"
	EventTestImported    EventType = "test.imported"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope published for every event type
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ResultSubmittedEvent is published after a scored submission has been stored
type ResultSubmittedEvent struct {
	ResultID        uint      `json:"result_id"`
	TestID          uint      `json:"test_id"`
	TestName        string    `json:"test_name"`
	StudentFullName string    `json:"student_full_name"`
	StudentGroup    string    `json:"student_group"`
	TotalScore      float64   `json:"total_score"`
	MaxScore        float64   `json:"max_score"`
	Percent         float64   `json:"percent"`
	ClosedScore     float64   `json:"closed_score"`
	OpenScore       float64   `json:"open_score"`
	DurationSec     int       `json:"duration_sec"`
	FinishedAt      time.Time `json:"finished_at"`
}

type TestImportedEvent struct {
	TestID        uint   `json:"test_id"`
	TestName      string `json:"test_name"`
	SourceFile    string `json:"source_file"`
	QuestionCount int    `json:"question_count"`
	ErrorCount    int    `json:"error_count"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewResultSubmittedEvent(data ResultSubmittedEvent) *Event {
	return newEvent(EventResultSubmitted, data)
}

func NewTestImportedEvent(data TestImportedEvent) *Event {
	return newEvent(EventTestImported, data)
}
