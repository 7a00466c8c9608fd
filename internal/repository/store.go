package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repositories groups every repository bound to the same connection or
// transaction.
type Repositories struct {
	Questions  QuestionRepository
	Resources  ResourceRepository
	Structures StructureRepository
	Exams      ExamRepository
	Attempts   TestAttemptRepository
	ImportLogs ImportLogRepository
}

// Store hands out repositories and runs units of work. Everything done through
// the Repositories passed to fn commits or rolls back together.
type Store interface {
	Repos() *Repositories
	Transaction(ctx context.Context, fn func(tx *Repositories) error) error
}

type gormStore struct {
	db    *gorm.DB
	repos *Repositories
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, repos: newRepositories(db)}
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Questions:  NewQuestionRepository(db),
		Resources:  NewResourceRepository(db),
		Structures: NewStructureRepository(db),
		Exams:      NewExamRepository(db),
		Attempts:   NewTestAttemptRepository(db),
		ImportLogs: NewImportLogRepository(db),
	}
}

func (s *gormStore) Repos() *Repositories {
	return s.repos
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

// notFound maps gorm's missing-row error to a domain sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
