package cache

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/lshigami/examhub/internal/grading"
	"golang.org/x/sync/singleflight"
)

// MemoryStore caches answer keys in process memory.
type MemoryStore struct {
	loader Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[uint]cachedKey
	// gen is bumped by Invalidate; a load that started under an older
	// generation is returned to its callers but not cached.
	gen map[uint]uint64
}

type cachedKey struct {
	key       grading.AnswerKey
	expiresAt time.Time
}

func NewMemoryStore(loader Loader, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[uint]cachedKey),
		gen:    make(map[uint]uint64),
	}
}

func (s *MemoryStore) lookup(examID uint, now time.Time) (grading.AnswerKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[examID]
	if !ok || !entry.expiresAt.After(now) {
		return grading.AnswerKey{}, false
	}
	return entry.key, true
}

func (s *MemoryStore) Get(ctx context.Context, examID uint) (grading.AnswerKey, error) {
	if key, ok := s.lookup(examID, s.clock()); ok {
		return key, nil
	}

	// shared by every waiter; one caller's cancellation does not abort it
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(flightKey(examID), func() (interface{}, error) {
		now := s.clock()
		if key, ok := s.lookup(examID, now); ok {
			return key, nil
		}
		s.mu.RLock()
		gen := s.gen[examID]
		s.mu.RUnlock()

		key, err := s.loader.LoadAnswerKey(loadCtx, examID)
		if err != nil {
			return grading.AnswerKey{}, err
		}

		s.mu.Lock()
		if s.gen[examID] == gen {
			s.cache[examID] = cachedKey{key: key, expiresAt: now.Add(ttlWithJitter(s.rnd, s.ttl))}
		}
		s.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return grading.AnswerKey{}, err
	}
	return result.(grading.AnswerKey), nil
}

func flightKey(examID uint) string {
	return strconv.FormatUint(uint64(examID), 10)
}

func (s *MemoryStore) Invalidate(_ context.Context, examID uint) error {
	s.mu.Lock()
	delete(s.cache, examID)
	s.gen[examID]++
	s.mu.Unlock()
	s.sf.Forget(flightKey(examID))
	return nil
}
