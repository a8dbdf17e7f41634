package models

import (
	"strconv"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/scoring"
)

// Test is a quiz students can take. Table names follow the admin application's schema.
type Test struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255;index" validate:"required,max=255"`
	Description string    `json:"description" gorm:"type:text"`
	Timer       int       `json:"timer" gorm:"not null;default:30"` // Minutes
	Codepass    string    `json:"codepass" gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Blocks        []TestBlock    `json:"blocks,omitempty" gorm:"foreignKey:TestID"`
	TestQuestions []TestQuestion `json:"test_questions,omitempty" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "quiz_test"
}

// RequiresPasscode reports whether a non-empty access code is configured
func (t *Test) RequiresPasscode() bool {
	return t.Codepass != ""
}

// OrderedQuestions returns the linked questions in link order
func (t *Test) OrderedQuestions() []Question {
	questions := make([]Question, 0, len(t.TestQuestions))
	for _, tq := range t.TestQuestions {
		if tq.Question != nil {
			questions = append(questions, *tq.Question)
		}
	}
	return questions
}

type Block struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:255;index"`
}

func (Block) TableName() string {
	return "quiz_block"
}

// TestBlock says how many questions of a block a test draws
type TestBlock struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	TestID       uint `json:"test_id" gorm:"not null;uniqueIndex:idx_test_block"`
	BlockID      uint `json:"block_id" gorm:"not null;uniqueIndex:idx_test_block"`
	NumQuestions int  `json:"num_questions" gorm:"not null;default:1"`

	Block Block `json:"block" gorm:"foreignKey:BlockID"`
}

func (TestBlock) TableName() string {
	return "quiz_testblock"
}

type Question struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	BlockID   *uint  `json:"block_id" gorm:"index"`
	BlockName string `json:"block_name" gorm:"size:255"`
	Type      string `json:"type" gorm:"not null;size:20" validate:"required,question_type"`
	Points    int    `json:"points" gorm:"not null;default:1" validate:"required,min=1"`
	Text      string `json:"question" gorm:"column:question;type:text;not null"`
	Answer    string `json:"answer" gorm:"column:answer;type:text;not null"`

	Block *Block `json:"block,omitempty" gorm:"foreignKey:BlockID"`
}

func (Question) TableName() string {
	return "quiz_question"
}

// Kind returns the normalized question type
func (q *Question) Kind() scoring.QuestionType {
	return scoring.ParseQuestionType(q.Type)
}

// BlockLabel prefers the denormalized import name over the linked block
func (q *Question) BlockLabel() string {
	if q.BlockName != "" {
		return q.BlockName
	}
	if q.Block != nil {
		return q.Block.Name
	}
	return ""
}

// StringID renders the id the way the public API exposes it
func (q *Question) StringID() string {
	return strconv.FormatUint(uint64(q.ID), 10)
}

// ToScoring converts the stored row into the scorer's view
func (q *Question) ToScoring() scoring.Question {
	return scoring.Question{
		ID:        q.StringID(),
		Type:      q.Kind(),
		Text:      q.Text,
		AnswerKey: q.Answer,
		Points:    float64(q.Points),
	}
}

// TestQuestion links a question to a test. Questions are served in link id order.
type TestQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	TestID     uint `json:"test_id" gorm:"not null;uniqueIndex:idx_test_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_test_question"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (TestQuestion) TableName() string {
	return "quiz_test_questions"
}

// ToScoringQuestions converts a slice of stored questions
func ToScoringQuestions(questions []Question) []scoring.Question {
	out := make([]scoring.Question, len(questions))
	for i := range questions {
		out[i] = questions[i].ToScoring()
	}
	return out
}
