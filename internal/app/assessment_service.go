package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

// SessionRepository abstracts how live quiz sessions are tracked
// (in-memory, Redis-backed, etc).
type SessionRepository interface {
	Put(session *QuizSession)
	Get(sessionID string) (*QuizSession, bool)
	Delete(sessionID string)
}

// QuestionRepository loads the fixed question set (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context) ([]domain.Question, error)
}

// AttemptRepository stores the append-only step attempt history per project.
type AttemptRepository interface {
	AppendStepAttempt(ctx context.Context, projectID string, attempt domain.StepAttempt) error
	ListStepAttempts(ctx context.Context, projectID string) ([]domain.StepAttempt, error)
	SetTeacherReview(ctx context.Context, projectID string, sequenceIndex int, score int, comment string) error
}

// QuizAttemptRepository records graded quiz attempts and serves the
// leaderboard and per-student history.
type QuizAttemptRepository interface {
	RecordQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	TopQuizAttempts(ctx context.Context, limit int) ([]domain.QuizAttempt, error)
	ListQuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error)
}

// StepGrader is the external grading collaborator for project step
// submissions. It returns an attempt-shaped result or fails transiently.
type StepGrader interface {
	GradeStep(ctx context.Context, projectID string, stepNumber int, content string) (domain.StepAttempt, error)
}

// DefaultQuizPassPercent is the percentage a quiz attempt needs to pass.
const DefaultQuizPassPercent = 80.0

// StepCooldown is the minimum wait between submissions of the same step.
const StepCooldown = 15 * time.Second

// AssessmentService contains the assessment and progression use cases.
type AssessmentService struct {
	sessions     SessionRepository
	questions    QuestionRepository
	attempts     AttemptRepository
	quizAttempts QuizAttemptRepository
	stepGrader   StepGrader

	progression     ProgressionConfig
	quizPassPercent float64
	now             func() time.Time
	sessionSeq      uint64

	projectMu    sync.Mutex
	projectLocks map[string]*sync.Mutex
}

func NewAssessmentService(
	sessions SessionRepository,
	questions QuestionRepository,
	attempts AttemptRepository,
	quizAttempts QuizAttemptRepository,
	stepGrader StepGrader,
) *AssessmentService {
	return &AssessmentService{
		sessions:        sessions,
		questions:       questions,
		attempts:        attempts,
		quizAttempts:    quizAttempts,
		stepGrader:      stepGrader,
		progression:     DefaultProgressionConfig(),
		quizPassPercent: DefaultQuizPassPercent,
		now:             time.Now,
		projectLocks:    make(map[string]*sync.Mutex),
	}
}

// SetClock is test-only for deterministic timestamps.
func (s *AssessmentService) SetClock(clock func() time.Time) {
	s.now = clock
}

// SetProgressionConfig overrides the pass score and stage count.
func (s *AssessmentService) SetProgressionConfig(cfg ProgressionConfig) {
	s.progression = cfg
}

// SetQuizPassPercent overrides the quiz pass threshold.
func (s *AssessmentService) SetQuizPassPercent(percent float64) {
	s.quizPassPercent = percent
}

// BeginQuiz fetches the question set and constructs a fresh session in the
// intro state. Voided sessions are never resumed; retrying means calling
// BeginQuiz again.
func (s *AssessmentService) BeginQuiz(ctx context.Context, userID string) (*QuizSession, error) {
	questions, err := s.questions.GetQuestionSet(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionSetEmpty
	}

	id := fmt.Sprintf("qs-%d-%d", s.now().UnixNano(), atomic.AddUint64(&s.sessionSeq, 1))
	session := NewQuizSession(id, userID, questions, &localQuizGrader{svc: s, questions: questions})
	s.sessions.Put(session)
	return session, nil
}

// Session looks up a live session for transports.
func (s *AssessmentService) Session(sessionID string) (*QuizSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// DiscardSession drops a session once its transport is done with it.
func (s *AssessmentService) DiscardSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// SubmitStep sends the content to the grading collaborator, appends the
// scored attempt to the project history, and returns the attempt together
// with the recomputed progression. Resubmitting the same step inside
// StepCooldown is rejected with ErrStepCooldown before any grading happens.
// Submissions for one project are serialized so sequence indexes never
// collide.
func (s *AssessmentService) SubmitStep(ctx context.Context, projectID string, stepNumber int, content string) (domain.StepAttempt, domain.ProgressionState, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.attempts.ListStepAttempts(ctx, projectID)
	if err != nil {
		return domain.StepAttempt{}, domain.ProgressionState{}, err
	}
	if wait := s.cooldownRemaining(history, stepNumber); wait > 0 {
		return domain.StepAttempt{}, domain.ProgressionState{}, fmt.Errorf("%w: wait %ds", domain.ErrStepCooldown, int((wait+time.Second-1)/time.Second))
	}

	attempt, err := s.stepGrader.GradeStep(ctx, projectID, stepNumber, content)
	if err != nil {
		return domain.StepAttempt{}, domain.ProgressionState{}, fmt.Errorf("grade step: %w", err)
	}

	attempt.StepNumber = stepNumber
	attempt.Content = content
	attempt.SequenceIndex = nextSequenceIndex(history)
	attempt.SubmittedAt = s.now()
	if err := s.attempts.AppendStepAttempt(ctx, projectID, attempt); err != nil {
		return domain.StepAttempt{}, domain.ProgressionState{}, err
	}

	history = append(history, attempt)
	return attempt, s.progression.Compute(history), nil
}

func (s *AssessmentService) projectLock(projectID string) *sync.Mutex {
	s.projectMu.Lock()
	defer s.projectMu.Unlock()
	lock, ok := s.projectLocks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.projectLocks[projectID] = lock
	}
	return lock
}

// cooldownRemaining returns how long the caller still has to wait before
// resubmitting stepNumber. Waiting exactly StepCooldown is enough.
func (s *AssessmentService) cooldownRemaining(history []domain.StepAttempt, stepNumber int) time.Duration {
	var last time.Time
	for _, attempt := range history {
		if attempt.StepNumber == stepNumber && attempt.SubmittedAt.After(last) {
			last = attempt.SubmittedAt
		}
	}
	if last.IsZero() {
		return 0
	}
	elapsed := s.now().Sub(last)
	if elapsed >= StepCooldown {
		return 0
	}
	return StepCooldown - elapsed
}

// Progression recomputes the derived progression state from the stored
// attempt history, so the UI can resume after reload.
func (s *AssessmentService) Progression(ctx context.Context, projectID string) (domain.ProgressionState, error) {
	history, err := s.attempts.ListStepAttempts(ctx, projectID)
	if err != nil {
		return domain.ProgressionState{}, err
	}
	return s.progression.Compute(history), nil
}

// History returns the ordered attempt history for a project.
func (s *AssessmentService) History(ctx context.Context, projectID string) ([]domain.StepAttempt, error) {
	return s.attempts.ListStepAttempts(ctx, projectID)
}

// ReviewStep applies a teacher score overlay to an existing attempt. The
// overlay never changes progression, which is driven by the grader score only.
func (s *AssessmentService) ReviewStep(ctx context.Context, projectID string, sequenceIndex, score int, comment string) error {
	return s.attempts.SetTeacherReview(ctx, projectID, sequenceIndex, score, comment)
}

// QuizHistory lists a student's own quiz attempts, newest first.
func (s *AssessmentService) QuizHistory(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	return s.quizAttempts.ListQuizAttempts(ctx, userID)
}

// Leaderboard returns the top quiz attempts ranked by score, then faster
// elapsed time, then earlier submission.
func (s *AssessmentService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	attempts, err := s.quizAttempts.TopQuizAttempts(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(attempts))
	for _, attempt := range attempts {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         attempt.UserID,
			Score:          attempt.Score,
			Total:          attempt.Total,
			ElapsedSeconds: attempt.ElapsedSeconds,
			SubmittedAt:    attempt.SubmittedAt,
		})
	}
	return entries, nil
}

func nextSequenceIndex(history []domain.StepAttempt) int {
	next := 0
	for _, attempt := range history {
		if attempt.SequenceIndex >= next {
			next = attempt.SequenceIndex + 1
		}
	}
	return next
}

// localQuizGrader scores answers against the authoritative question set and
// records the attempt. The answer key never leaves the server.
type localQuizGrader struct {
	svc       *AssessmentService
	questions []domain.Question
}

func (g *localQuizGrader) GradeQuiz(ctx context.Context, userID string, submission domain.QuizSubmission) (domain.QuizResult, error) {
	result := scoreQuiz(g.questions, submission.Answers, g.svc.quizPassPercent)
	attempt := domain.QuizAttempt{
		UserID:         userID,
		Score:          result.Score,
		Total:          result.Total,
		Percent:        result.Percent,
		Passed:         result.Passed,
		ElapsedSeconds: submission.ElapsedSeconds,
		SubmittedAt:    g.svc.now(),
		Details:        result.Details,
	}
	if err := g.svc.quizAttempts.RecordQuizAttempt(ctx, attempt); err != nil {
		// Transient: the session stays active and the caller retries.
		return domain.QuizResult{}, err
	}
	return result, nil
}

// scoreQuiz checks each answered question against the key. Unanswered
// questions count against the total but produce no detail row.
func scoreQuiz(questions []domain.Question, answers map[string]int, passPercent float64) domain.QuizResult {
	score := 0
	details := make([]domain.AnswerDetail, 0, len(answers))
	for _, question := range questions {
		selected, ok := answers[question.ID]
		if !ok {
			continue
		}
		correct := selected == question.CorrectIndex
		if correct {
			score++
		}
		details = append(details, domain.AnswerDetail{
			QuestionID: question.ID,
			Selected:   selected,
			Correct:    correct,
			Category:   question.Category,
		})
	}

	total := len(questions)
	percent := 0.0
	if total > 0 {
		percent = float64(score) / float64(total) * 100
	}
	return domain.QuizResult{
		Score:   score,
		Total:   total,
		Percent: percent,
		Passed:  percent >= passPercent,
		Details: details,
	}
}
