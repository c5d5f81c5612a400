package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-service/internal/domain"
	"trivia-service/internal/game"
)

// CachingQuizStore keeps quiz aggregates in Redis (one JSON value per
// quiz) in front of a backing store, write-through on save and
// read-through with singleflight on miss. The per-quiz serialization
// in the game service makes the cache safe for read-modify-write: a
// save always lands before the next read of the same quiz.
type CachingQuizStore struct {
	client  *redis.Client
	backing game.QuizStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewCachingQuizStore(client *redis.Client, backing game.QuizStore, ttl time.Duration) *CachingQuizStore {
	return &CachingQuizStore{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *CachingQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	if err := s.backing.Create(ctx, quiz); err != nil {
		return err
	}
	s.fill(ctx, quiz)
	return nil
}

func (s *CachingQuizStore) Get(ctx context.Context, quizID string) (*domain.Quiz, error) {
	raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
	if err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return &quiz, nil
		}
	}

	result, err, _ := s.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
		if err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return &quiz, nil
			}
		}

		quiz, err := s.backing.Get(ctx, quizID)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Quiz), nil
}

func (s *CachingQuizStore) Save(ctx context.Context, quiz *domain.Quiz) error {
	if err := s.backing.Save(ctx, quiz); err != nil {
		return err
	}
	s.fill(ctx, quiz)
	return nil
}

func (s *CachingQuizStore) Delete(ctx context.Context, quizID string) error {
	if err := s.backing.Delete(ctx, quizID); err != nil {
		return err
	}
	_ = s.client.Del(ctx, s.key(quizID)).Err()
	return nil
}

func (s *CachingQuizStore) ActiveIDs(ctx context.Context) ([]string, error) {
	return s.backing.ActiveIDs(ctx)
}

// fill writes the aggregate into the cache. A failed write must not
// leave a stale entry behind, so the key is dropped instead.
func (s *CachingQuizStore) fill(ctx context.Context, quiz *domain.Quiz) {
	data, err := json.Marshal(quiz)
	if err != nil {
		_ = s.client.Del(ctx, s.key(quiz.ID)).Err()
		return
	}
	if err := s.client.Set(ctx, s.key(quiz.ID), data, s.ttlWithJitter()).Err(); err != nil {
		_ = s.client.Del(ctx, s.key(quiz.ID)).Err()
	}
}

func (s *CachingQuizStore) key(quizID string) string {
	return fmt.Sprintf("quiz:%s:state", quizID)
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (s *CachingQuizStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
