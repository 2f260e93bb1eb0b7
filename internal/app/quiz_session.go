package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

// QuizGrader grades a finished session's answers. Implementations persist
// the attempt; the session only cares about the returned result.
type QuizGrader interface {
	GradeQuiz(ctx context.Context, userID string, submission domain.QuizSubmission) (domain.QuizResult, error)
}

// QuizSession owns one quiz attempt from start to submission. It enforces
// the answer/lock/advance protocol, the integrity policy, and an at-most-once
// submission effect. Instances are not shared between attempts; a voided
// session is discarded and a fresh one constructed to retry.
type QuizSession struct {
	id        string
	userID    string
	questions []domain.Question
	grader    QuizGrader
	timer     *ticker

	mu          sync.Mutex
	status      domain.SessionStatus
	cursor      int
	answers     map[string]int
	lock        domain.LockState
	elapsed     int
	frozen      *int // elapsed value captured when submission is first issued
	inFlight    bool
	result      *domain.QuizResult
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// NewQuizSession builds a session in the intro state. The question order is
// fixed for the session's lifetime.
func NewQuizSession(id, userID string, questions []domain.Question, grader QuizGrader) *QuizSession {
	return newQuizSession(id, userID, questions, grader, time.Second)
}

// NewQuizSessionWithInterval is test-only for deterministic tick pacing.
func NewQuizSessionWithInterval(id, userID string, questions []domain.Question, grader QuizGrader, interval time.Duration) *QuizSession {
	return newQuizSession(id, userID, questions, grader, interval)
}

func newQuizSession(id, userID string, questions []domain.Question, grader QuizGrader, interval time.Duration) *QuizSession {
	return &QuizSession{
		id:          id,
		userID:      userID,
		questions:   questions,
		grader:      grader,
		timer:       newTicker(interval),
		status:      domain.StatusIntro,
		answers:     make(map[string]int),
		lock:        domain.LockUnlocked,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// Start transitions intro -> active, resets the cursor, answers and elapsed
// counter, and acquires the timer. No-op outside the intro state or for a
// session built without questions.
func (s *QuizSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusIntro || len(s.questions) == 0 {
		return
	}
	s.status = domain.StatusActive
	s.cursor = 0
	s.answers = make(map[string]int)
	s.lock = domain.LockUnlocked
	s.elapsed = 0
	s.frozen = nil
	s.result = nil
	s.timer.start(s.tick)
	s.broadcastLocked()
}

// SelectChoice records an answer for the current question, overwriting any
// earlier choice. Rejected silently while locked, outside the active state,
// or for an out-of-range index.
func (s *QuizSession) SelectChoice(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive || s.lock == domain.LockLocked {
		return
	}
	question := s.questions[s.cursor]
	if index < 0 || index >= len(question.Choices) {
		return
	}
	s.answers[question.ID] = index
	s.broadcastLocked()
}

// ConfirmLock freezes the current answer. No-op until an answer exists for
// the current question.
func (s *QuizSession) ConfirmLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive || s.lock == domain.LockLocked {
		return
	}
	if _, ok := s.answers[s.questions[s.cursor].ID]; !ok {
		return
	}
	s.lock = domain.LockLocked
	s.broadcastLocked()
}

// Unlock reopens the current answer for editing without discarding it.
func (s *QuizSession) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive || s.lock != domain.LockLocked {
		return
	}
	s.lock = domain.LockUnlocked
	s.broadcastLocked()
}

// Advance moves to the next question, or on the last question issues the
// submission. It is only legal from a locked answer; elsewhere it is a
// silent no-op. The returned bool reports whether the session finished.
func (s *QuizSession) Advance(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.status != domain.StatusActive || s.lock != domain.LockLocked || s.inFlight {
		s.mu.Unlock()
		return false, nil
	}
	if s.cursor < len(s.questions)-1 {
		s.cursor++
		s.lock = domain.LockUnlocked
		s.broadcastLocked()
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()
	return s.submit(ctx)
}

// Finish issues the submission explicitly. It requires an active session
// with every question answered; otherwise it is a no-op.
func (s *QuizSession) Finish(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.status != domain.StatusActive || len(s.answers) != len(s.questions) {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()
	return s.submit(ctx)
}

// submit issues the grading call at most once at a time. The in-flight flag
// is set before the call; a concurrent second call is a no-op. On failure the
// session stays active with answers intact and the error is retryable. A
// violation reported while the call is out wins: the stale result is
// discarded rather than applied to a voided session.
func (s *QuizSession) submit(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.status != domain.StatusActive || s.inFlight {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight = true
	if s.frozen == nil {
		v := s.elapsed
		s.frozen = &v
	}
	payload := domain.QuizSubmission{
		Answers:        make(map[string]int, len(s.answers)),
		ElapsedSeconds: *s.frozen,
	}
	for id, choice := range s.answers {
		payload.Answers[id] = choice
	}
	userID := s.userID
	s.mu.Unlock()

	result, err := s.grader.GradeQuiz(ctx, userID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.status != domain.StatusActive {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	s.status = domain.StatusFinished
	s.result = &result
	s.timer.halt()
	s.broadcastLocked()
	return true, nil
}

// ReportIntegrityViolation forces an active session to the terminal voided
// state and releases the timer. Idempotent; a no-op before start and after
// finish so spurious host signals cannot void an idle session. Answers are
// kept for audit but no further mutation is possible.
func (s *QuizSession) ReportIntegrityViolation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive {
		return
	}
	s.status = domain.StatusVoided
	s.timer.halt()
	s.broadcastLocked()
}

// tick advances the elapsed counter once per interval while active. The
// counter freezes once a submission has been issued so a failed-and-retried
// submission re-sends the same value.
func (s *QuizSession) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusActive || s.frozen != nil {
		return
	}
	s.elapsed++
	s.broadcastLocked()
}

// ID returns the session identifier.
func (s *QuizSession) ID() string { return s.id }

// UserID returns the owning student.
func (s *QuizSession) UserID() string { return s.userID }

// Status returns the current lifecycle state.
func (s *QuizSession) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Cursor returns the index of the current question.
func (s *QuizSession) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LockState returns the per-question answer gate.
func (s *QuizSession) LockState() domain.LockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock
}

// Elapsed returns the elapsed-seconds counter.
func (s *QuizSession) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Voided reports whether the session was terminated by an integrity violation.
func (s *QuizSession) Voided() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == domain.StatusVoided
}

// Terminal reports whether the session reached a terminal state.
func (s *QuizSession) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == domain.StatusVoided || s.status == domain.StatusFinished
}

// Result returns the stored grading result for a finished session.
func (s *QuizSession) Result() (domain.QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.QuizResult{}, false
	}
	return *s.result, true
}

// Questions returns the fixed question sequence with the answer key blanked,
// safe to hand to clients.
func (s *QuizSession) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	for i := range out {
		out[i].CorrectIndex = 0
	}
	return out
}

// Snapshot returns a read-only view for transports.
func (s *QuizSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot on every state change
// and timer tick. The caller must invoke the cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *QuizSession) snapshotLocked() domain.SessionSnapshot {
	answered := false
	if len(s.questions) > 0 {
		_, answered = s.answers[s.questions[s.cursor].ID]
	}
	snap := domain.SessionSnapshot{
		SessionID:      s.id,
		Status:         s.status,
		Cursor:         s.cursor,
		QuestionCount:  len(s.questions),
		LockState:      s.lock,
		ElapsedSeconds: s.elapsed,
		Answered:       answered,
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
	}
	return snap
}
