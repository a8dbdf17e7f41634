package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bgitu-quiz/quiz-service/internal/models"
	"github.com/bgitu-quiz/quiz-service/internal/scoring"
)

// Client facing names for grouped question kinds
const (
	ViewTypeMultipleChoice = "multiple_choice"
	ViewTypeMatching       = "matching"

	matchingPrompt = "Соедините понятия и определения"
)

var (
	lineSplit     = regexp.MustCompile(`\r?\n`)
	optionLine    = regexp.MustCompile(`(?i)^([a-zа-яё])\)\s*(.+)$`)
	termLine      = regexp.MustCompile(`^\d+\.`)
	definitionRow = regexp.MustCompile(`^[A-ZА-ЯЁ]\.`)
)

// splitQuestionAndOptions separates the prompt from "a) ..." option lines. Prompt lines
// after the first option are ignored.
func splitQuestionAndOptions(text string) (string, []string) {
	var prompt []string
	options := []string{}
	foundOption := false

	for _, line := range lineSplit.Split(text, -1) {
		if m := optionLine.FindStringSubmatch(line); m != nil {
			foundOption = true
			options = append(options, strings.TrimSpace(m[2]))
			continue
		}
		if !foundOption {
			prompt = append(prompt, strings.TrimSpace(line))
		}
	}

	return strings.TrimSpace(strings.Join(prompt, " ")), options
}

// splitMatching picks numbered terms and lettered definitions out of a pairs question
func splitMatching(text string) *MatchingPairs {
	pairs := &MatchingPairs{Terms: []string{}, Definitions: []string{}}
	for _, line := range lineSplit.Split(text, -1) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case termLine.MatchString(line):
			pairs.Terms = append(pairs.Terms, line)
		case definitionRow.MatchString(line):
			pairs.Definitions = append(pairs.Definitions, line)
		}
	}
	return pairs
}

// presentQuestion builds the detailed view used by GetTest
func presentQuestion(q *models.Question) QuestionView {
	view := baseView(q)

	switch q.Kind() {
	case scoring.TypeClosed, scoring.TypeMultiClosed:
		view.Type = ViewTypeMultipleChoice
		view.Text, view.Options = splitQuestionAndOptions(q.Text)
	case scoring.TypePairs:
		view.Type = ViewTypeMatching
		view.Text = matchingPrompt
		view.Pairs = splitMatching(q.Text)
	}

	return view
}

// presentFlatQuestion builds the compact view used by GetTestQuestions. Option parsing is
// left to the client and pairs carry their raw markup.
func presentFlatQuestion(q *models.Question) QuestionView {
	view := baseView(q)

	switch q.Kind() {
	case scoring.TypeClosed, scoring.TypeMultiClosed:
		view.Type = ViewTypeMultipleChoice
	case scoring.TypePairs:
		view.Type = ViewTypeMatching
		view.Text = matchingPrompt
		view.VariantsHTML = q.Text
	}

	return view
}

func baseView(q *models.Question) QuestionView {
	view := QuestionView{
		ID:           q.StringID(),
		Block:        q.BlockLabel(),
		Type:         q.Type,
		OriginalType: q.Type,
		Text:         q.Text,
		Points:       q.Points,
	}
	if q.Kind() == scoring.TypeImage {
		view.ImageURL = q.Answer
	}
	return view
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
