// Package grading scores exam submissions. It works on an AnswerKey snapshot
// of the exam and has no storage dependencies apart from the AudioSaver used
// for speaking answers.
package grading

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lshigami/examhub/internal/model"
)

// KeyEntry is the grading view of one exam question.
type KeyEntry struct {
	QuestionID      uint               `json:"question_id"`
	PartOrder       int                `json:"part_order"`
	SortOrder       int                `json:"sort_order"`
	SkillType       model.SkillType    `json:"skill_type"`
	QuestionType    model.QuestionType `json:"question_type"`
	CorrectAnswerID *uint              `json:"correct_answer_id,omitempty"`
	Weight          float64            `json:"weight"`
}

// AnswerKey lists the questions of an exam in presentation order.
type AnswerKey struct {
	ExamID  uint
	Entries []KeyEntry
}

func (k AnswerKey) MaxScore() float64 {
	total := 0.0
	for _, e := range k.Entries {
		total += e.Weight
	}
	return total
}

// SortEntries orders entries by part, then by position inside the part.
func SortEntries(entries []KeyEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PartOrder != b.PartOrder {
			return a.PartOrder < b.PartOrder
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.QuestionID < b.QuestionID
	})
}

// BuildAnswerKey flattens an exam loaded with parts, questions and answers.
func BuildAnswerKey(exam *model.Exam) AnswerKey {
	key := AnswerKey{ExamID: exam.ID}
	for _, part := range exam.Parts {
		for _, eq := range part.Questions {
			entry := KeyEntry{
				QuestionID:   eq.QuestionID,
				PartOrder:    part.OrderIndex,
				SortOrder:    eq.SortOrder,
				SkillType:    eq.Question.SkillType,
				QuestionType: eq.Question.QuestionType,
				Weight:       eq.Score,
			}
			if id, ok := eq.Question.CorrectAnswerID(); ok {
				entry.CorrectAnswerID = &id
			}
			key.Entries = append(key.Entries, entry)
		}
	}
	SortEntries(key.Entries)
	return key
}

// Audio is an uploaded speaking answer.
type Audio struct {
	FileName string
	Content  io.Reader
}

// AudioSaver persists a speaking answer and returns its public URL.
type AudioSaver interface {
	SaveAudio(ctx context.Context, questionID uint, audio Audio) (string, error)
}

// Submission is the raw answer payload of a student, keyed by question id.
type Submission struct {
	SelectedAnswers map[uint]uint
	TextAnswers     map[uint]string
	Audio           map[uint]Audio
}

// Outcome is the graded (or partly graded) form of a submission.
type Outcome struct {
	Results  []model.TestResult
	Score    float64
	MaxScore float64
	Status   model.AttemptStatus
}

// Evaluate grades every question of key. Choice answers are scored at once;
// free text and speaking audio are stored with a nil correctness flag and
// leave the attempt Submitted until a grader scores them.
func Evaluate(ctx context.Context, key AnswerKey, sub Submission, saver AudioSaver) (Outcome, error) {
	out := Outcome{MaxScore: key.MaxScore(), Status: model.AttemptGraded}
	pending := false

	for _, e := range key.Entries {
		r := model.TestResult{QuestionID: e.QuestionID, MaxScore: e.Weight}

		if selected, ok := sub.SelectedAnswers[e.QuestionID]; ok {
			r.SelectedAnswerID = &selected
			// no answer flagged correct means no selection can be right
			correct := e.CorrectAnswerID != nil && *e.CorrectAnswerID == selected
			r.IsCorrect = &correct
			if correct {
				r.ScoreObtained = e.Weight
				out.Score += e.Weight
			}
		} else if text, ok := sub.TextAnswers[e.QuestionID]; ok && strings.TrimSpace(text) != "" {
			r.TextAnswer = &text
			pending = true
		} else if audio, ok := sub.Audio[e.QuestionID]; ok && e.SkillType == model.SkillSpeaking && saver != nil {
			url, err := saver.SaveAudio(ctx, e.QuestionID, audio)
			if err != nil {
				return Outcome{}, fmt.Errorf("save audio for question %d: %w", e.QuestionID, err)
			}
			r.AudioAnswerURL = &url
			pending = true
		} else {
			r.IsCorrect = boolPtr(false)
		}

		out.Results = append(out.Results, r)
	}

	if pending {
		out.Status = model.AttemptSubmitted
	}
	return out, nil
}

// ManualGrades carries grader input keyed by TestResult id.
type ManualGrades struct {
	Scores   map[uint]float64
	Feedback map[uint]string
}

// ApplyManual writes grader scores into an attempt loaded with its results and
// their questions. Choice results keep their automatic score; only their
// feedback may change. The attempt total is recomputed from every result.
func ApplyManual(attempt *model.TestAttempt, in ManualGrades) error {
	for _, r := range attempt.Results {
		if r.Question.QuestionType.IsChoice() {
			continue
		}
		if s, ok := in.Scores[r.ID]; ok && (s < 0 || s > r.MaxScore) {
			return fmt.Errorf("%w: result %d scored %.2f, allowed 0-%.2f", model.ErrInvalidScore, r.ID, s, r.MaxScore)
		}
	}

	total := 0.0
	for i := range attempt.Results {
		r := &attempt.Results[i]
		if s, ok := in.Scores[r.ID]; ok && !r.Question.QuestionType.IsChoice() {
			r.ScoreObtained = s
			r.IsCorrect = boolPtr(s > 0)
		}
		if fb, ok := in.Feedback[r.ID]; ok {
			r.Feedback = &fb
		}
		total += r.ScoreObtained
	}

	attempt.Score = total
	attempt.Status = model.AttemptGraded
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
