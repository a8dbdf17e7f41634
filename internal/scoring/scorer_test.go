package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScorer_CoversEveryQuestionType(t *testing.T) {
	s := NewScorer()
	for _, qt := range AllQuestionTypes {
		_, ok := s.strategies[qt]
		assert.True(t, ok, "no strategy registered for %q", qt)
	}
}

func TestScore_Closed(t *testing.T) {
	q := Question{ID: "1", Type: TypeClosed, AnswerKey: " B ", Points: 3}

	tests := []struct {
		name   string
		answer AnswerValue
		want   float64
	}{
		{name: "exact match", answer: NewRawAnswer("B"), want: 3},
		{name: "match after trim", answer: NewRawAnswer("  B\n"), want: 3},
		{name: "different option", answer: NewRawAnswer("C"), want: 0},
		{name: "case differs", answer: NewRawAnswer("b"), want: 0},
		{name: "missing answer", answer: AnswerValue{}, want: 0},
		{name: "single item list", answer: NewListAnswer("B"), want: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(q, tc.answer)
			assert.Equal(t, tc.want, got.Score)
			assert.Equal(t, 3.0, got.MaxScore)
		})
	}
}

func TestScore_MultiClosed(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		points float64
		answer AnswerValue
		want   float64
	}{
		{name: "two of three from json key", key: `["a","b","c"]`, points: 9, answer: NewRawAnswer("a,b"), want: 6},
		{name: "all correct", key: `["a","b","c"]`, points: 9, answer: NewListAnswer("c", "b", "a"), want: 9},
		{name: "extra selections not penalised", key: `["a","b","c"]`, points: 9, answer: NewListAnswer("a", "b", "c", "d"), want: 9},
		{name: "empty answer", key: `["a","b","c"]`, points: 9, answer: NewRawAnswer(""), want: 0},
		{name: "missing answer", key: `["a","b","c"]`, points: 9, answer: AnswerValue{}, want: 0},
		{name: "comma key with spaces", key: "1, 3", points: 4, answer: NewRawAnswer("3"), want: 2},
		{name: "numeric json key", key: `[1, 2]`, points: 2, answer: NewListAnswer("1", "2"), want: 2},
		{name: "json answer string", key: "a,b", points: 2, answer: NewRawAnswer(`["a"]`), want: 1},
		{name: "duplicates in key collapse", key: "a,a,b", points: 2, answer: NewRawAnswer("a"), want: 1},
		{name: "empty key", key: "", points: 5, answer: NewRawAnswer(""), want: 0},
		{name: "malformed key", key: "{not json", points: 5, answer: NewRawAnswer("x"), want: 0},
		{name: "broken json array key falls back to commas", key: `["a",b`, points: 4, answer: NewRawAnswer("b"), want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{ID: "mc", Type: TypeMultiClosed, AnswerKey: tc.key, Points: tc.points}
			got := Score(q, tc.answer)
			assert.InDelta(t, tc.want, got.Score, 1e-9)
		})
	}
}

func TestScore_OpenText(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		answer AnswerValue
		want   float64
	}{
		{name: "identical text", key: "the quick brown fox", answer: NewRawAnswer("the quick brown fox"), want: 10},
		{name: "case and punctuation ignored", key: "Закон Ома", answer: NewRawAnswer("закон, ома!"), want: 10},
		{name: "disjoint vocabulary", key: "photosynthesis", answer: NewRawAnswer("mitochondria"), want: 0},
		{name: "half overlap", key: "a b", answer: NewRawAnswer("a c"), want: 5},
		{name: "empty answer", key: "anything", answer: NewRawAnswer(""), want: 0},
		{name: "missing answer", key: "anything", answer: AnswerValue{}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{ID: "o", Type: TypeOpen, AnswerKey: tc.key, Points: 10}
			got := Score(q, tc.answer)
			assert.InDelta(t, tc.want, got.Score, 1e-9)
		})
	}
}

func TestScore_OpenFormula(t *testing.T) {
	q := Question{ID: "f", Type: TypeOpen, AnswerKey: "$x^2 + y^2 = z^2$", Points: 4}

	assert.Equal(t, 4.0, Score(q, NewRawAnswer("$x^2+y^2=z^2$")).Score)
	assert.Equal(t, 4.0, Score(q, NewRawAnswer(" $x^2 +\ty^2 = z^2$\n")).Score)
	assert.Equal(t, 0.0, Score(q, NewRawAnswer("$x^2 + y^2$")).Score)
	assert.Equal(t, 0.0, Score(q, NewRawAnswer("x^2 + y^2 = z^2")).Score, "formula needs exact match, not similarity")
	assert.Equal(t, 0.0, Score(q, AnswerValue{}).Score)
}

func TestScore_Pairs(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		answer      AnswerValue
		want        float64
		wantUser    string
		wantCorrect string
	}{
		{
			name:        "cyrillic letter matches latin key",
			key:         "1 – A\n2 – C",
			answer:      NewPairAnswer(PairAnswer{Term: "1", Definition: "A"}, PairAnswer{Term: "2", Definition: "С"}),
			want:        10,
			wantUser:    "1 – A\n2 – С",
			wantCorrect: "1 – A\n2 – C",
		},
		{
			name:        "one of two pairs",
			key:         "1 – A\n2 – B",
			answer:      NewPairAnswer(PairAnswer{Term: "1", Definition: "A"}, PairAnswer{Term: "2", Definition: "С"}),
			want:        5,
			wantUser:    "1 – A\n2 – С",
			wantCorrect: "1 – A\n2 – B",
		},
		{
			name:        "widget labels reduced to number and letter",
			key:         "1 - B\r\n2 — A",
			answer:      NewPairAnswer(PairAnswer{Term: "1. Ohm", Definition: "b) resistance"}, PairAnswer{Term: "2. Volt", Definition: "A) potential"}),
			want:        10,
			wantUser:    "1 – b\n2 – A",
			wantCorrect: "1 – B\n2 – A",
		},
		{
			name:   "text answer with mixed dashes and case",
			key:    "1 – A\n2 – B\n3 – C\n4 – D",
			answer: NewRawAnswer("1-a\n2 —b\n3 – x\nnoise"),
			want:   5,
		},
		{
			name:   "cyrillic key latin answer",
			key:    "1 – В",
			answer: NewRawAnswer("1 - B"),
			want:   10,
		},
		{
			name:   "unmapped cyrillic letter does not match",
			key:    "1 – D",
			answer: NewRawAnswer("1 - Д"),
			want:   0,
		},
		{
			name:        "malformed key",
			key:         "A - 1\nnothing here",
			answer:      NewRawAnswer("1 - A"),
			want:        0,
			wantCorrect: "",
		},
		{
			name:   "missing answer",
			key:    "1 – A",
			answer: AnswerValue{},
			want:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{ID: "p", Type: TypePairs, AnswerKey: tc.key, Points: 10}
			got := Score(q, tc.answer)
			assert.InDelta(t, tc.want, got.Score, 1e-9)
			if tc.wantUser != "" {
				assert.Equal(t, tc.wantUser, got.UserAnswer)
			}
			if tc.wantCorrect != "" || tc.name == "malformed key" {
				assert.Equal(t, tc.wantCorrect, got.CorrectAnswer)
			}
		})
	}
}

func TestScore_UnscoredTypes(t *testing.T) {
	for _, qt := range []QuestionType{TypeImage, TypeLatex, QuestionType("essay"), QuestionType("")} {
		t.Run(string(qt), func(t *testing.T) {
			q := Question{ID: "u", Type: qt, AnswerKey: "same", Points: 5}
			got := Score(q, NewRawAnswer("same"))
			assert.Equal(t, 0.0, got.Score)
			assert.Equal(t, 5.0, got.MaxScore)
			assert.Equal(t, "same", got.UserAnswer)
		})
	}
}

func TestScore_IsIdempotent(t *testing.T) {
	questions := []Question{
		{ID: "1", Type: TypeOpen, AnswerKey: "electric current flows", Points: 7},
		{ID: "2", Type: TypePairs, AnswerKey: "1 – A\n2 – B", Points: 4},
		{ID: "3", Type: TypeMultiClosed, AnswerKey: `["x","y"]`, Points: 3},
	}
	answers := []AnswerValue{
		NewRawAnswer("current flows through the wire"),
		NewPairAnswer(PairAnswer{Term: "1", Definition: "А"}),
		NewRawAnswer("y,z"),
	}

	for i, q := range questions {
		first := Score(q, answers[i])
		second := Score(q, answers[i])
		assert.Equal(t, first, second)
	}
}

func TestScore_StaysWithinBounds(t *testing.T) {
	keys := []string{"", "$a$", "a,b", `["a"]`, "1 – A", "some words here"}
	values := []AnswerValue{
		{},
		NewRawAnswer(""),
		NewRawAnswer("some words here some words"),
		NewListAnswer("a", "a", "b", "c"),
		NewPairAnswer(PairAnswer{Term: "1", Definition: "A"}, PairAnswer{Term: "1", Definition: "A"}),
	}

	types := append([]QuestionType{QuestionType("unknown")}, AllQuestionTypes...)
	for _, qt := range types {
		for _, key := range keys {
			for _, v := range values {
				q := Question{ID: "b", Type: qt, AnswerKey: key, Points: 6}
				got := Score(q, v)
				assert.GreaterOrEqual(t, got.Score, 0.0)
				assert.LessOrEqual(t, got.Score, got.MaxScore)
			}
		}
	}
}

func TestScoreSubmission(t *testing.T) {
	questions := []Question{
		{ID: "10", Type: TypeClosed, Text: "Capital?", AnswerKey: "Paris", Points: 2},
		{ID: "11", Type: TypeOpen, AnswerKey: "red green", Points: 4},
		{ID: "12", Type: TypeImage, AnswerKey: "/media/cat.png", Points: 1},
		{ID: "13", Type: TypeMultiClosed, AnswerKey: "a,b", Points: 2},
	}
	answers := []Answer{
		{QuestionID: "13", Value: NewListAnswer("a")},
		{QuestionID: "10", Value: NewRawAnswer("Paris")},
		{QuestionID: "10", Value: NewRawAnswer("London")},
		{QuestionID: "11", Value: NewRawAnswer("red green")},
		{QuestionID: "99", Value: NewRawAnswer("orphan")},
	}

	got := ScoreSubmission(questions, answers)

	require.Len(t, got.Results, 4)
	assert.Equal(t, []string{"10", "11", "12", "13"}, []string{
		got.Results[0].QuestionID, got.Results[1].QuestionID, got.Results[2].QuestionID, got.Results[3].QuestionID,
	})
	assert.Equal(t, 2.0, got.Results[0].Score, "first answer for a question wins")
	assert.Equal(t, "Capital?", got.Results[0].Text)
	assert.InDelta(t, 4.0, got.Results[1].Score, 1e-9)
	assert.Equal(t, 0.0, got.Results[2].Score)
	assert.Equal(t, 1.0, got.Results[3].Score)

	assert.InDelta(t, 7.0, got.TotalScore, 1e-9)
	assert.Equal(t, 9.0, got.MaxScore)
	assert.InDelta(t, 4.0, got.OpenScore, 1e-9)
	assert.InDelta(t, 3.0, got.ClosedScore, 1e-9)
	assert.InDelta(t, 7.0/9.0*100, got.Percent, 1e-9)

	var sum float64
	for _, r := range got.Results {
		sum += r.Score
	}
	assert.InDelta(t, sum, got.TotalScore, 1e-9)
}

func TestScoreSubmission_NoAnswers(t *testing.T) {
	questions := []Question{
		{ID: "1", Type: TypeOpen, AnswerKey: "x", Points: 1},
		{ID: "2", Type: TypeClosed, AnswerKey: "x", Points: 1},
	}

	got := ScoreSubmission(questions, nil)

	assert.Equal(t, 0.0, got.TotalScore)
	assert.Equal(t, 2.0, got.MaxScore)
	assert.Equal(t, 0.0, got.Percent)
	assert.Len(t, got.Results, 2)
}

func TestScoreSubmission_Empty(t *testing.T) {
	got := ScoreSubmission(nil, nil)

	assert.Equal(t, 0.0, got.MaxScore)
	assert.Equal(t, 0.0, got.Percent)
	assert.NotNil(t, got.Results)
	assert.Empty(t, got.Results)
}
