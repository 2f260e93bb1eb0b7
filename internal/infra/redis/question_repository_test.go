package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
	"github.com/akkalak213/edpplatform-sub000/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	questions, err := repo.GetQuestionSet(context.Background())
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if len(questions) != 2 || questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected questions %+v", questions)
	}

	// Second call should hit the cache, with the answer key restored.
	questions, err = repo.GetQuestionSet(context.Background())
	if err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if questions[0].CorrectIndex != 1 || questions[1].CorrectIndex != 1 {
		t.Fatalf("answer key lost in cache round-trip: %+v", questions)
	}
}

func TestCachedQuestionsNeverSerializeAnswerKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	if _, err := repo.GetQuestionSet(context.Background()); err != nil {
		t.Fatalf("get questions: %v", err)
	}

	raw, err := mr.Get(questionsKey)
	if err != nil {
		t.Fatalf("read cache key: %v", err)
	}
	for _, fragment := range []string{"correctIndex", "CorrectIndex"} {
		if strings.Contains(raw, fragment) {
			t.Fatalf("answer key leaked into client-safe payload: %s", raw)
		}
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionSet(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What comes first?", Choices: []string{"design", "identify", "test", "present"}, Category: "process", CorrectIndex: 1},
		{ID: "q2", Prompt: "What is 2 + 2?", Choices: []string{"3", "4", "5", "6"}, Category: "math", CorrectIndex: 1},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
