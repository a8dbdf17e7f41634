package scoring

import "strings"

// QuestionType is the declared kind of a question as stored in quiz_question.type
type QuestionType string

const (
	TypeOpen        QuestionType = "open"
	TypeClosed      QuestionType = "closed"
	TypeMultiClosed QuestionType = "multiclosed"
	TypePairs       QuestionType = "pairs"
	TypeImage       QuestionType = "image"
	TypeLatex       QuestionType = "latex"
)

// AllQuestionTypes lists every kind the scorer knows about
var AllQuestionTypes = []QuestionType{
	TypeOpen,
	TypeClosed,
	TypeMultiClosed,
	TypePairs,
	TypeImage,
	TypeLatex,
}

// ParseQuestionType normalizes a stored type string. Unknown values are returned as is
// and end up in the unscored strategy.
func ParseQuestionType(s string) QuestionType {
	return QuestionType(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnown reports whether t is one of AllQuestionTypes
func (t QuestionType) IsKnown() bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsScored reports whether answers of this kind can earn points automatically
func (t QuestionType) IsScored() bool {
	switch t {
	case TypeOpen, TypeClosed, TypeMultiClosed, TypePairs:
		return true
	default:
		return false
	}
}
