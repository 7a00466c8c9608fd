package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/lshigami/examhub/internal/grading"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// RedisStore caches answer keys in Redis, one hash per exam:
// HSET exam:{examID}:key {questionID} {entry JSON}
// exam:{examID}:gen counts invalidations; a key loaded under an older
// generation is not written back.
type RedisStore struct {
	client *redis.Client
	loader Loader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRedisStore(client *redis.Client, loader Loader, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var errStaleKey = errors.New("answer key changed while loading")

func hashKey(examID uint) string {
	return "exam:" + strconv.FormatUint(uint64(examID), 10) + ":key"
}

func genKey(examID uint) string {
	return "exam:" + strconv.FormatUint(uint64(examID), 10) + ":gen"
}

func (s *RedisStore) generation(ctx context.Context, examID uint) (int64, error) {
	gen, err := s.client.Get(ctx, genKey(examID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *RedisStore) read(ctx context.Context, examID uint) (grading.AnswerKey, bool) {
	fields, err := s.client.HGetAll(ctx, hashKey(examID)).Result()
	if err != nil || len(fields) == 0 {
		return grading.AnswerKey{}, false
	}
	key, err := decodeKey(examID, fields)
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Msg("AnswerKey: dropping unreadable cache entry")
		return grading.AnswerKey{}, false
	}
	return key, true
}

func (s *RedisStore) Get(ctx context.Context, examID uint) (grading.AnswerKey, error) {
	if key, ok := s.read(ctx, examID); ok {
		return key, nil
	}

	// shared by every waiter; one caller's cancellation does not abort it
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(hashKey(examID), func() (interface{}, error) {
		if key, ok := s.read(loadCtx, examID); ok {
			return key, nil
		}
		gen, genErr := s.generation(loadCtx, examID)

		key, err := s.loader.LoadAnswerKey(loadCtx, examID)
		if err != nil {
			return grading.AnswerKey{}, err
		}
		if genErr != nil {
			log.Warn().Err(genErr).Uint("examID", examID).Msg("AnswerKey: generation unreadable, not caching")
			return key, nil
		}
		// the loaded key is still valid when caching fails
		switch err := s.write(loadCtx, key, gen); {
		case errors.Is(err, errStaleKey), errors.Is(err, redis.TxFailedErr):
			log.Debug().Uint("examID", examID).Msg("AnswerKey: exam changed during load, not caching")
		case err != nil:
			log.Warn().Err(err).Uint("examID", examID).Msg("AnswerKey: cache write failed")
		}
		return key, nil
	})
	if err != nil {
		return grading.AnswerKey{}, err
	}
	return result.(grading.AnswerKey), nil
}

// write stores key unless the exam generation moved past gen.
func (s *RedisStore) write(ctx context.Context, key grading.AnswerKey, gen int64) error {
	if len(key.Entries) == 0 {
		return nil
	}
	fields := make([]interface{}, 0, 2*len(key.Entries))
	for _, e := range key.Entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		fields = append(fields, strconv.FormatUint(uint64(e.QuestionID), 10), raw)
	}
	s.mu.Lock()
	ttl := ttlWithJitter(s.rnd, s.ttl)
	s.mu.Unlock()

	hk, gk := hashKey(key.ExamID), genKey(key.ExamID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleKey
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, hk)
			pipe.HSet(ctx, hk, fields...)
			if ttl > 0 {
				pipe.Expire(ctx, hk, ttl)
			}
			return nil
		})
		return err
	}, gk)
}

func (s *RedisStore) Invalidate(ctx context.Context, examID uint) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(examID))
		pipe.Del(ctx, hashKey(examID))
		return nil
	})
	s.sf.Forget(hashKey(examID))
	return err
}

func decodeKey(examID uint, fields map[string]string) (grading.AnswerKey, error) {
	key := grading.AnswerKey{ExamID: examID, Entries: make([]grading.KeyEntry, 0, len(fields))}
	for field, raw := range fields {
		var e grading.KeyEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return grading.AnswerKey{}, fmt.Errorf("decode entry %s: %w", field, err)
		}
		key.Entries = append(key.Entries, e)
	}
	grading.SortEntries(key.Entries)
	return key, nil
}
