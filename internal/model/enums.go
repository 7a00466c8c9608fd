package model

import (
	"fmt"
	"strings"
)

// SkillType is the competency a question belongs to. Stored as its integer code.
type SkillType int

const (
	SkillNone      SkillType = 0
	SkillListening SkillType = 1
	SkillReading   SkillType = 2
	SkillWriting   SkillType = 3
	SkillSpeaking  SkillType = 4
	SkillGrammar   SkillType = 5
)

var skillTypeNames = map[SkillType]string{
	SkillNone:      "none",
	SkillListening: "listening",
	SkillReading:   "reading",
	SkillWriting:   "writing",
	SkillSpeaking:  "speaking",
	SkillGrammar:   "grammar",
}

// ParseSkillType maps a stored code to its variant. Out-of-range codes are rejected.
func ParseSkillType(code int) (SkillType, error) {
	s := SkillType(code)
	if _, ok := skillTypeNames[s]; !ok {
		return SkillNone, fmt.Errorf("%w: %d", ErrInvalidSkillType, code)
	}
	return s, nil
}

// ParseSkillTypeName accepts the lower-case name used in URLs and YAML files.
func ParseSkillTypeName(name string) (SkillType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range skillTypeNames {
		if n == name {
			return s, nil
		}
	}
	return SkillNone, fmt.Errorf("%w: %q", ErrInvalidSkillType, name)
}

func (s SkillType) String() string {
	if n, ok := skillTypeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("skill(%d)", int(s))
}

// QuestionType is the answering format of a question.
type QuestionType int

const (
	QuestionSingleChoice      QuestionType = 1
	QuestionMultipleChoice    QuestionType = 2
	QuestionFillInTheBlank    QuestionType = 3
	QuestionMatching          QuestionType = 4
	QuestionEssay             QuestionType = 5
	QuestionSpeakingRecording QuestionType = 6
	QuestionSentenceOrdering  QuestionType = 7
)

var questionTypeNames = map[QuestionType]string{
	QuestionSingleChoice:      "single_choice",
	QuestionMultipleChoice:    "multiple_choice",
	QuestionFillInTheBlank:    "fill_in_the_blank",
	QuestionMatching:          "matching",
	QuestionEssay:             "essay",
	QuestionSpeakingRecording: "speaking_recording",
	QuestionSentenceOrdering:  "sentence_ordering",
}

func ParseQuestionType(code int) (QuestionType, error) {
	q := QuestionType(code)
	if _, ok := questionTypeNames[q]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuestionType, code)
	}
	return q, nil
}

// IsChoice reports whether results of this type are scored automatically at submission.
func (q QuestionType) IsChoice() bool {
	return q == QuestionSingleChoice || q == QuestionMultipleChoice
}

func (q QuestionType) String() string {
	if n, ok := questionTypeNames[q]; ok {
		return n
	}
	return fmt.Sprintf("question_type(%d)", int(q))
}

// AttemptStatus follows Started -> Submitted -> Graded, or Started -> Graded.
type AttemptStatus int

const (
	AttemptStarted   AttemptStatus = 0
	AttemptSubmitted AttemptStatus = 1
	AttemptGraded    AttemptStatus = 2
)

func (s AttemptStatus) String() string {
	switch s {
	case AttemptStarted:
		return "started"
	case AttemptSubmitted:
		return "submitted"
	case AttemptGraded:
		return "graded"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ResourceType discriminates the two parent resource tables.
type ResourceType string

const (
	ResourceReading   ResourceType = "reading"
	ResourceListening ResourceType = "listening"
)

func ParseResourceType(raw string) (ResourceType, error) {
	switch ResourceType(strings.ToLower(strings.TrimSpace(raw))) {
	case ResourceReading:
		return ResourceReading, nil
	case ResourceListening:
		return ResourceListening, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, raw)
}

func (s SkillType) MarshalText() ([]byte, error) {
	if _, ok := skillTypeNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSkillType, int(s))
	}
	return []byte(s.String()), nil
}

func (s *SkillType) UnmarshalText(text []byte) error {
	parsed, err := ParseSkillTypeName(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseQuestionTypeName accepts names such as "single_choice".
func ParseQuestionTypeName(name string) (QuestionType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for q, n := range questionTypeNames {
		if n == name {
			return q, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQuestionType, name)
}

func (q QuestionType) MarshalText() ([]byte, error) {
	if _, ok := questionTypeNames[q]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuestionType, int(q))
	}
	return []byte(q.String()), nil
}

func (q *QuestionType) UnmarshalText(text []byte) error {
	parsed, err := ParseQuestionTypeName(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseAttemptStatus accepts "started", "submitted" or "graded".
func ParseAttemptStatus(name string) (AttemptStatus, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "started":
		return AttemptStarted, nil
	case "submitted":
		return AttemptSubmitted, nil
	case "graded":
		return AttemptGraded, nil
	}
	return 0, fmt.Errorf("unknown attempt status %q", name)
}

func (s AttemptStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AttemptStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAttemptStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
