package domain

import "time"

// ProgressionMode says whether the student is attempting a stage for the
// first time in the cycle or redoing one that fell below the pass score.
type ProgressionMode string

const (
	ModeFresh    ProgressionMode = "fresh"
	ModeRevision ProgressionMode = "revision"
)

// SessionStatus is the lifecycle state of a quiz session. Voided and
// Finished are terminal.
type SessionStatus string

const (
	StatusIntro    SessionStatus = "intro"
	StatusActive   SessionStatus = "active"
	StatusVoided   SessionStatus = "voided"
	StatusFinished SessionStatus = "finished"
)

// LockState is the per-question answer gate.
type LockState string

const (
	LockUnlocked LockState = "unlocked"
	LockLocked   LockState = "locked"
)

// Question is one multiple-choice question. CorrectIndex is the answer key
// and must never be serialized to clients.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"` // four per question
	Category     string   `json:"category"`
	CorrectIndex int      `json:"-"`
}

// ScoreItem is one criterion row of a grading breakdown.
type ScoreItem struct {
	Criteria string `json:"criteria"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
	Comment  string `json:"comment,omitempty"`
}

// StepAttempt is one scored submission against a process stage. Attempts are
// append-only and ordered by SequenceIndex; the attempt history is the sole
// input to progression. TeacherScore/TeacherComment are a review overlay set
// after the fact and never feed back into progression.
type StepAttempt struct {
	StepNumber     int         `json:"stepNumber"`
	Score          int         `json:"score"`
	SequenceIndex  int         `json:"sequenceIndex"`
	Content        string      `json:"content,omitempty"`
	Feedback       string      `json:"feedback,omitempty"`
	ScoreBreakdown []ScoreItem `json:"scoreBreakdown,omitempty"`
	TeacherScore   *int        `json:"teacherScore,omitempty"`
	TeacherComment string      `json:"teacherComment,omitempty"`
	SubmittedAt    time.Time   `json:"submittedAt"`
}

// ProgressionState is derived from the attempt history, never stored.
type ProgressionState struct {
	CurrentStep   int             `json:"currentStep"`
	Mode          ProgressionMode `json:"mode"`
	CycleComplete bool            `json:"cycleComplete"`
}

// QuizSubmission is the outgoing grading payload for a finished session.
// ElapsedSeconds is frozen at the moment submission is first issued and
// re-sent unchanged on retry.
type QuizSubmission struct {
	Answers        map[string]int `json:"answers"`
	ElapsedSeconds int            `json:"elapsedSeconds"`
}

// AnswerDetail is the per-question outcome of a graded quiz. The correct
// choice itself is withheld so results cannot leak the answer key.
type AnswerDetail struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
	Category   string `json:"category"`
}

// QuizResult is the graded outcome of one quiz session.
type QuizResult struct {
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Percent float64        `json:"percent"`
	Passed  bool           `json:"passed"`
	Details []AnswerDetail `json:"details"`
}

// QuizAttempt is the persisted record of a graded session.
type QuizAttempt struct {
	UserID         string         `json:"userId"`
	Score          int            `json:"score"`
	Total          int            `json:"total"`
	Percent        float64        `json:"percent"`
	Passed         bool           `json:"passed"`
	ElapsedSeconds int            `json:"elapsedSeconds"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	Details        []AnswerDetail `json:"details,omitempty"`
}

// LeaderboardEntry is a ranked quiz attempt: score desc, then faster time,
// then earlier submission.
type LeaderboardEntry struct {
	UserID         string    `json:"userId"`
	Score          int       `json:"score"`
	Total          int       `json:"total"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// SessionSnapshot is a read-only view of a quiz session for transports.
type SessionSnapshot struct {
	SessionID      string        `json:"sessionId"`
	Status         SessionStatus `json:"status"`
	Cursor         int           `json:"cursor"`
	QuestionCount  int           `json:"questionCount"`
	LockState      LockState     `json:"lockState"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	Answered       bool          `json:"answered"`
	Result         *QuizResult   `json:"result,omitempty"`
}
