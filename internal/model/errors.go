package model

import "errors"

var (
	ErrExamNotFound      = errors.New("exam not found")
	ErrPartNotFound      = errors.New("exam part not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrQuestionInUse     = errors.New("question is used by an exam or attempt")
	ErrStructureNotFound = errors.New("exam structure not found")
	ErrAttemptNotFound   = errors.New("test attempt not found")
	// ErrResourceNotFound covers both reading passages and listening resources.
	ErrResourceNotFound       = errors.New("resource not found")
	ErrInvalidSkillType       = errors.New("invalid skill type")
	ErrInvalidQuestionType    = errors.New("invalid question type")
	ErrInvalidResourceType    = errors.New("invalid resource type")
	ErrInvalidScore           = errors.New("invalid score")
	ErrEmptyExam              = errors.New("exam has no questions")
	ErrDuplicateStructurePart = errors.New("duplicate structure part")
	ErrStructureExists        = errors.New("exam structure name already exists")
	ErrExamClosed             = errors.New("exam is not open for submissions")
)
