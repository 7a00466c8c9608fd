// Package cache keeps exam answer keys close to the grader. Submissions read
// the key on every request while exams change rarely, so keys are cached with
// a TTL and dropped whenever the exam is edited.
package cache

import (
	"context"
	"math/rand"
	"time"

	"github.com/lshigami/examhub/internal/grading"
)

// AnswerKeyStore returns the answer key of an exam, loading it on a miss.
type AnswerKeyStore interface {
	Get(ctx context.Context, examID uint) (grading.AnswerKey, error)
	Invalidate(ctx context.Context, examID uint) error
}

// Loader builds an answer key from the database.
type Loader interface {
	LoadAnswerKey(ctx context.Context, examID uint) (grading.AnswerKey, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, examID uint) (grading.AnswerKey, error)

func (f LoaderFunc) LoadAnswerKey(ctx context.Context, examID uint) (grading.AnswerKey, error) {
	return f(ctx, examID)
}

// ttlWithJitter adds up to 10% to ttl to spread expirations.
func ttlWithJitter(rnd *rand.Rand, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rnd.Int63n(jitterMax+1))
}
