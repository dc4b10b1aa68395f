package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"career-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz definition from its source (the quiz API, a database).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository keeps fetched definitions for a TTL. A definition never
// changes under its id, so a cached copy is as good as a fresh fetch.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	group  singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu      sync.RWMutex
	entries map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedQuiz),
	}
}

// GetQuiz returns the cached definition or loads it, collapsing concurrent
// loads of the same id into one.
func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.lookup(quizID); ok {
		return quiz, nil
	}

	v, err, _ := r.group.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.lookup(quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.entries[quizID] = cachedQuiz{quiz: quiz, expiresAt: r.clock().Add(r.ttlWithJitter())}
			r.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

// Invalidate drops a cached definition.
func (r *QuizRepository) Invalidate(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, quizID)
}

func (r *QuizRepository) lookup(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

// ttlWithJitter spreads expirations by up to 10%.
func (r *QuizRepository) ttlWithJitter() time.Duration {
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
