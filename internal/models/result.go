package models

import (
	"time"

	"gorm.io/datatypes"
)

type TestResult struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	// Student
	StudentFullName string `json:"student_full_name" gorm:"not null;size:255"`
	StudentGroup    string `json:"student_group" gorm:"not null;size:100"`

	// Scores
	TotalScore  float64 `json:"total_score" gorm:"not null"`
	MaxScore    float64 `json:"max_score" gorm:"not null"`
	Percent     float64 `json:"percent" gorm:"not null"`
	ClosedScore float64 `json:"closed_score" gorm:"not null;default:0"`
	OpenScore   float64 `json:"open_score" gorm:"not null;default:0"`

	// Timing
	StartedAt   time.Time `json:"started_at" gorm:"not null"`
	FinishedAt  time.Time `json:"finished_at" gorm:"not null"`
	DurationSec int       `json:"duration_sec" gorm:"not null"`

	Details   datatypes.JSON `json:"details" gorm:"type:jsonb"` // []scoring.Result
	CreatedAt time.Time      `json:"created_at" gorm:"index"`

	Test *Test `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

func (TestResult) TableName() string {
	return "quiz_testresult"
}

// AllModels lists every table in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Test{},
		&Block{},
		&TestBlock{},
		&Question{},
		&TestQuestion{},
		&TestResult{},
	}
}
