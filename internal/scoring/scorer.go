package scoring

import (
	"strings"

	"github.com/samber/lo"
)

// Question is the read-only view of a stored question needed for scoring
type Question struct {
	ID        string
	Type      QuestionType
	Text      string
	AnswerKey string
	Points    float64
}

// Answer is one entry of a submission
type Answer struct {
	QuestionID string      `json:"questionId" validate:"required"`
	Value      AnswerValue `json:"answer"`
}

// Result is the per-question outcome
type Result struct {
	QuestionID    string       `json:"questionId"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	UserAnswer    string       `json:"userAnswer"`
	CorrectAnswer string       `json:"correctAnswer"`
	Score         float64      `json:"score"`
	MaxScore      float64      `json:"maxScore"`
}

// SubmissionResult aggregates per-question results in question order
type SubmissionResult struct {
	TotalScore  float64  `json:"totalScore"`
	MaxScore    float64  `json:"maxScore"`
	Percent     float64  `json:"percent"`
	ClosedScore float64  `json:"closedScore"`
	OpenScore   float64  `json:"openScore"`
	Results     []Result `json:"results"`
}

// outcome is what a strategy computes before bounds are applied
type outcome struct {
	score         float64
	userAnswer    string
	correctAnswer string
}

// strategy scores one kind of question. Implementations must be pure.
type strategy interface {
	Score(q Question, answer AnswerValue) outcome
}

// Scorer routes questions to the strategy registered for their type
type Scorer struct {
	strategies map[QuestionType]strategy
}

// NewScorer installs a strategy for every kind in AllQuestionTypes
func NewScorer() *Scorer {
	return &Scorer{
		strategies: map[QuestionType]strategy{
			TypeOpen:        openStrategy{},
			TypeClosed:      closedStrategy{},
			TypeMultiClosed: multiClosedStrategy{},
			TypePairs:       pairsStrategy{},
			TypeImage:       unscoredStrategy{},
			TypeLatex:       unscoredStrategy{},
		},
	}
}

var defaultScorer = NewScorer()

// Score scores a single question with the default scorer
func Score(q Question, answer AnswerValue) Result {
	return defaultScorer.Score(q, answer)
}

// ScoreSubmission scores a full submission with the default scorer
func ScoreSubmission(questions []Question, answers []Answer) SubmissionResult {
	return defaultScorer.ScoreSubmission(questions, answers)
}

func (s *Scorer) strategyFor(t QuestionType) strategy {
	if st, ok := s.strategies[t]; ok {
		return st
	}
	return unscoredStrategy{}
}

// Score never fails: malformed keys or answers yield a zero score
func (s *Scorer) Score(q Question, answer AnswerValue) Result {
	out := s.strategyFor(q.Type).Score(q, answer)

	maxScore := q.Points
	if maxScore < 0 {
		maxScore = 0
	}

	return Result{
		QuestionID:    q.ID,
		Text:          q.Text,
		Type:          q.Type,
		UserAnswer:    out.userAnswer,
		CorrectAnswer: out.correctAnswer,
		Score:         clamp(out.score, 0, maxScore),
		MaxScore:      q.Points,
	}
}

// ScoreSubmission matches answers to questions by id (first answer wins) and
// aggregates the results in question order.
func (s *Scorer) ScoreSubmission(questions []Question, answers []Answer) SubmissionResult {
	byQuestion := make(map[string]AnswerValue, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.QuestionID)
		if _, seen := byQuestion[id]; !seen {
			byQuestion[id] = a.Value
		}
	}

	result := SubmissionResult{Results: make([]Result, 0, len(questions))}
	for _, q := range questions {
		r := s.Score(q, byQuestion[q.ID])
		result.Results = append(result.Results, r)
		result.TotalScore += r.Score
		result.MaxScore += q.Points
		if q.Type == TypeOpen {
			result.OpenScore += r.Score
		} else {
			result.ClosedScore += r.Score
		}
	}
	if result.MaxScore > 0 {
		result.Percent = result.TotalScore / result.MaxScore * 100
	}
	return result
}

// ===== STRATEGIES =====

// formulaDelimiter marks an open answer key as a LaTeX formula graded by exact match
const formulaDelimiter = "$"

type openStrategy struct{}

func (openStrategy) Score(q Question, answer AnswerValue) outcome {
	out := outcome{userAnswer: answer.Text(), correctAnswer: q.AnswerKey}
	if answer.IsMissing() {
		return out
	}

	if strings.Contains(q.AnswerKey, formulaDelimiter) {
		if StripWhitespace(answer.Text()) == StripWhitespace(q.AnswerKey) {
			out.score = q.Points
		}
		return out
	}

	out.score = CosineSimilarity(answer.Text(), q.AnswerKey) * q.Points
	return out
}

type closedStrategy struct{}

func (closedStrategy) Score(q Question, answer AnswerValue) outcome {
	out := outcome{userAnswer: answer.Text(), correctAnswer: q.AnswerKey}
	if answer.IsMissing() {
		return out
	}
	if strings.TrimSpace(answer.Text()) == strings.TrimSpace(q.AnswerKey) {
		out.score = q.Points
	}
	return out
}

// multiClosedStrategy awards recall against the correct set; extra selections cost nothing
type multiClosedStrategy struct{}

func (multiClosedStrategy) Score(q Question, answer AnswerValue) outcome {
	correct := ParseOptionList(q.AnswerKey)
	selected := answer.Items()
	out := outcome{
		userAnswer:    strings.Join(selected, ","),
		correctAnswer: strings.Join(correct, ","),
	}
	if len(correct) == 0 {
		return out
	}

	hits := lo.Filter(correct, func(option string, _ int) bool {
		return lo.Contains(selected, option)
	})
	out.score = float64(len(hits)) * q.Points / float64(len(correct))
	return out
}

type pairsStrategy struct{}

func (pairsStrategy) Score(q Question, answer AnswerValue) outcome {
	keyPairs := ParsePairLines(q.AnswerKey)
	userPairs := submittedPairs(answer)
	out := outcome{
		userAnswer:    FormatPairs(userPairs),
		correctAnswer: FormatPairs(keyPairs),
	}
	if len(keyPairs) == 0 {
		return out
	}

	matched := 0
	for _, kp := range keyPairs {
		want := NormalizeLetter(kp.Definition)
		if lo.ContainsBy(userPairs, func(up Pair) bool {
			return up.Term == kp.Term && NormalizeLetter(up.Definition) == want
		}) {
			matched++
		}
	}
	out.score = float64(matched) * q.Points / float64(len(keyPairs))
	return out
}

func submittedPairs(answer AnswerValue) []Pair {
	switch answer.Kind() {
	case AnswerPairList:
		return lo.Map(answer.Pairs(), func(p PairAnswer, _ int) Pair {
			return NormalizePairAnswer(p)
		})
	case AnswerRawString:
		return ParsePairLines(answer.Text())
	case AnswerStringList:
		return ParsePairLines(strings.Join(answer.Items(), "\n"))
	default:
		return []Pair{}
	}
}

// unscoredStrategy covers image, latex and unknown types: answers are recorded, never scored
type unscoredStrategy struct{}

func (unscoredStrategy) Score(q Question, answer AnswerValue) outcome {
	return outcome{userAnswer: answer.Text(), correctAnswer: q.AnswerKey}
}
