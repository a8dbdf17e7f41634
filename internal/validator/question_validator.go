package validator

import (
	"strings"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
)

// QuestionValidator checks that a question's answer key fits its type
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns one error per problem found in the question row
func (v *QuestionValidator) ValidateQuestion(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	kind := question.Kind()
	if !kind.IsKnown() {
		errs = append(errs, ValidationError{
			Field:   models.ColumnType,
			Message: "must be a valid question type (open, closed, multiclosed, pairs, image, latex)",
			Value:   question.Type,
			Rule:    "question_type",
		})
	}
	if question.Points < 1 {
		errs = append(errs, ValidationError{
			Field:   models.ColumnPoints,
			Message: "must be at least 1",
			Value:   question.Points,
			Rule:    "min",
		})
	}
	if strings.TrimSpace(question.Text) == "" {
		errs = append(errs, ValidationError{
			Field:   models.ColumnQuestion,
			Message: "is required",
			Rule:    "required",
		})
	}
	if kind.IsKnown() {
		if err := v.ValidateAnswerKey(kind, question.Answer); err != nil {
			errs = append(errs, *err)
		}
	}

	return errs
}

// ValidateAnswerKey checks the stored answer against the grammar the scorer uses for the type.
// Latex questions are never scored and accept any key.
func (v *QuestionValidator) ValidateAnswerKey(kind scoring.QuestionType, answer string) *ValidationError {
	var message string

	switch kind {
	case scoring.TypeOpen, scoring.TypeClosed, scoring.TypeImage:
		if strings.TrimSpace(answer) == "" {
			message = "is required"
		}
	case scoring.TypeMultiClosed:
		if len(scoring.ParseOptionList(answer)) == 0 {
			message = "must list at least one correct option"
		}
	case scoring.TypePairs:
		if len(scoring.ParsePairLines(answer)) == 0 {
			message = "must contain at least one line shaped like \"1 - A\""
		}
	}

	if message == "" {
		return nil
	}
	return &ValidationError{
		Field:   models.ColumnAnswer,
		Message: message,
		Value:   answer,
		Rule:    "answer_key",
	}
}
