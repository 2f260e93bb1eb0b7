package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the question set from a backing store.
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question set in Redis and falls back to a
// loader on cache miss. The client-safe question list and the answer key are
// stored separately, because Question never serializes its CorrectIndex:
//
//	SET  quiz:questions          {json list, key stripped}
//	HSET quiz:questions:answers  {questionID} {correctIndex}
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const (
	questionsKey = "quiz:questions"
	answersKey   = "quiz:questions:answers"
)

func (r *QuestionRepository) GetQuestionSet(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.readCache(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.readCache(ctx); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestionSet(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal questions: %w", err)
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.Set(ctx, questionsKey, raw, ttl)
		for _, q := range questions {
			pipe.HSet(ctx, answersKey, q.ID, q.CorrectIndex)
		}
		if ttl > 0 {
			pipe.Expire(ctx, answersKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) readCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, questionsKey).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}

	answers, err := r.client.HGetAll(ctx, answersKey).Result()
	if err != nil || len(answers) == 0 {
		return nil, false
	}
	for i := range questions {
		idx, ok := answers[questions[i].ID]
		if !ok {
			return nil, false
		}
		correct, err := strconv.Atoi(idx)
		if err != nil {
			return nil, false
		}
		questions[i].CorrectIndex = correct
	}
	return questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
