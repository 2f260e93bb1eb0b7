package memory

import (
	"context"
	"testing"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

func TestAttemptStoreAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	for i, score := range []int{70, 40, 65} {
		err := store.AppendStepAttempt(ctx, "p1", domain.StepAttempt{
			StepNumber:    1 + i/2,
			Score:         score,
			SequenceIndex: i,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	history, err := store.ListStepAttempts(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(history))
	}
	for i, attempt := range history {
		if attempt.SequenceIndex != i {
			t.Fatalf("attempt %d has sequence %d", i, attempt.SequenceIndex)
		}
	}

	other, _ := store.ListStepAttempts(ctx, "p2")
	if len(other) != 0 {
		t.Fatalf("unrelated project has history: %v", other)
	}
}

func TestTeacherReviewOverlay(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	_ = store.AppendStepAttempt(ctx, "p1", domain.StepAttempt{StepNumber: 1, Score: 55, SequenceIndex: 0})

	if err := store.SetTeacherReview(ctx, "p1", 0, 72, "good revision"); err != nil {
		t.Fatalf("review: %v", err)
	}
	history, _ := store.ListStepAttempts(ctx, "p1")
	if history[0].TeacherScore == nil || *history[0].TeacherScore != 72 {
		t.Fatalf("overlay not applied: %+v", history[0])
	}
	if history[0].Score != 55 {
		t.Fatalf("overlay must not touch the grader score, got %d", history[0].Score)
	}

	if err := store.SetTeacherReview(ctx, "p1", 9, 50, ""); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected attempt error, got %v", err)
	}
}

func TestListQuizAttemptsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	_ = store.RecordQuizAttempt(ctx, domain.QuizAttempt{UserID: "u1", Score: 4, SubmittedAt: base})
	_ = store.RecordQuizAttempt(ctx, domain.QuizAttempt{UserID: "u2", Score: 8, SubmittedAt: base.Add(time.Minute)})
	_ = store.RecordQuizAttempt(ctx, domain.QuizAttempt{UserID: "u1", Score: 6, SubmittedAt: base.Add(2 * time.Minute)})

	history, err := store.ListQuizAttempts(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 attempts for u1, got %d", len(history))
	}
	if history[0].Score != 6 || history[1].Score != 4 {
		t.Fatalf("expected newest first, got %+v", history)
	}

	none, _ := store.ListQuizAttempts(ctx, "ghost")
	if len(none) != 0 {
		t.Fatalf("unknown user has attempts: %v", none)
	}
}

func TestTopQuizAttemptsRanking(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	attempts := []domain.QuizAttempt{
		{UserID: "slow", Score: 8, ElapsedSeconds: 300, SubmittedAt: base},
		{UserID: "fast", Score: 8, ElapsedSeconds: 120, SubmittedAt: base.Add(time.Hour)},
		{UserID: "top", Score: 9, ElapsedSeconds: 400, SubmittedAt: base},
		{UserID: "early", Score: 8, ElapsedSeconds: 120, SubmittedAt: base.Add(-time.Hour)},
	}
	for _, attempt := range attempts {
		if err := store.RecordQuizAttempt(ctx, attempt); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	ranked, err := store.TopQuizAttempts(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected limit 3, got %d", len(ranked))
	}
	wantOrder := []string{"top", "early", "fast"}
	for i, want := range wantOrder {
		if ranked[i].UserID != want {
			t.Fatalf("rank %d = %s, want %s", i, ranked[i].UserID, want)
		}
	}
}
