package importer

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/lshigami/examhub/internal/model"
)

const (
	minQuestionLen = 5
	minBodyLen     = 11 // passage or transcript must be longer than 10 characters
	minPromptLen   = 10
	minLevel       = 1
	maxLevel       = 5
	optionSlots    = 4
	minOptions     = 2
)

var optionLetters = [optionSlots]string{"A", "B", "C", "D"}

const (
	msgJunkGrouped     = "Row has values in detail columns but no title, body or question"
	msgJunkIndependent = "Row has values in detail columns but no question content"
	msgOrphan          = "Question has no parent: it must follow a valid title/body row"
	msgTitleRequired   = "Title is required"
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// parseWhole accepts "3" as well as the "3.0" spreadsheets tend to produce.
func parseWhole(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func parseLevel(raw string) (int, string) {
	n, ok := parseWhole(raw)
	if !ok || n < minLevel || n > maxLevel {
		return 0, fmt.Sprintf("Level must be an integer between %d and %d (got %q)", minLevel, maxLevel, raw)
	}
	return n, ""
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

// choiceQuestion validates a 4-option question row and builds the question
// when the row is clean.
func choiceQuestion(r record, c choiceColumns, skill model.SkillType) (model.Question, []string) {
	var msgs []string

	text := r.cell(c.Question)
	if runeLen(text) < minQuestionLen {
		msgs = append(msgs, fmt.Sprintf("Question text must be at least %d characters", minQuestionLen))
	}

	level, msg := parseLevel(r.cell(c.Level))
	if msg != "" {
		msgs = append(msgs, msg)
	}

	var options [optionSlots]string
	filled := 0
	for i, col := range c.Options {
		options[i] = r.cell(col)
		if options[i] != "" {
			filled++
		}
	}

	rawCorrect := r.cell(c.Correct)
	correct, ok := parseWhole(rawCorrect)
	correctInRange := ok && correct >= 1 && correct <= optionSlots
	if !correctInRange {
		msgs = append(msgs, fmt.Sprintf("Correct answer must be an integer between 1 and %d (got %q)", optionSlots, rawCorrect))
	}

	// A blank correct slot is reported on its own, whatever else is filled.
	switch {
	case correctInRange && options[correct-1] == "":
		msgs = append(msgs, fmt.Sprintf("Correct answer %d points to option %s, which is empty", correct, optionLetters[correct-1]))
	case filled < minOptions:
		msgs = append(msgs, fmt.Sprintf("At least %d answer options are required (found %d)", minOptions, filled))
	}

	if len(msgs) > 0 {
		return model.Question{}, msgs
	}

	q := model.Question{
		Content:      text,
		SkillType:    skill,
		QuestionType: model.QuestionSingleChoice,
		Level:        level,
		Explanation:  optionalString(r.cell(c.Explanation)),
	}
	for i, opt := range options {
		if opt == "" {
			continue
		}
		q.Answers = append(q.Answers, model.Answer{
			Content:   opt,
			IsCorrect: boolPtr(i == correct-1),
		})
	}
	return q, nil
}

func appendRowErrors(errs []RowError, row int, msgs []string) []RowError {
	for _, m := range msgs {
		errs = append(errs, RowError{Row: row, Message: m})
	}
	return errs
}
