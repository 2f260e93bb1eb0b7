package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

// AttemptStore keeps step attempt histories and quiz attempts in memory.
// It implements both app.AttemptRepository and app.QuizAttemptRepository.
type AttemptStore struct {
	mu           sync.RWMutex
	steps        map[string][]domain.StepAttempt
	quizAttempts []domain.QuizAttempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		steps: make(map[string][]domain.StepAttempt),
	}
}

func (s *AttemptStore) AppendStepAttempt(_ context.Context, projectID string, attempt domain.StepAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[projectID] = append(s.steps[projectID], attempt)
	return nil
}

func (s *AttemptStore) ListStepAttempts(_ context.Context, projectID string) ([]domain.StepAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.steps[projectID]
	out := make([]domain.StepAttempt, len(history))
	copy(out, history)
	return out, nil
}

func (s *AttemptStore) SetTeacherReview(_ context.Context, projectID string, sequenceIndex, score int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.steps[projectID]
	for i := range history {
		if history[i].SequenceIndex == sequenceIndex {
			reviewed := score
			history[i].TeacherScore = &reviewed
			history[i].TeacherComment = comment
			return nil
		}
	}
	return domain.ErrAttemptNotFound
}

func (s *AttemptStore) RecordQuizAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizAttempts = append(s.quizAttempts, attempt)
	return nil
}

// TopQuizAttempts ranks by score desc, then faster time, then earlier
// submission.
func (s *AttemptStore) TopQuizAttempts(_ context.Context, limit int) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	ranked := make([]domain.QuizAttempt, len(s.quizAttempts))
	copy(ranked, s.quizAttempts)
	s.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].ElapsedSeconds != ranked[j].ElapsedSeconds {
			return ranked[i].ElapsedSeconds < ranked[j].ElapsedSeconds
		}
		return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ListQuizAttempts returns one student's attempts, newest first.
func (s *AttemptStore) ListQuizAttempts(_ context.Context, userID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	var history []domain.QuizAttempt
	for _, attempt := range s.quizAttempts {
		if attempt.UserID == userID {
			history = append(history, attempt)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].SubmittedAt.After(history[j].SubmittedAt)
	})
	return history, nil
}
