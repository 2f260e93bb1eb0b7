package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session ID is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionSetNotFound indicates question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionSetEmpty indicates a session cannot be built without questions.
	ErrQuestionSetEmpty = errors.New("question set is empty")
	// ErrSubmissionFailed wraps a transient grading failure. The session rolls
	// back to its pre-submission state and the caller may retry.
	ErrSubmissionFailed = errors.New("quiz submission failed")
	// ErrAttemptNotFound indicates a step attempt lookup by sequence index failed.
	ErrAttemptNotFound = errors.New("step attempt not found")
	// ErrStepCooldown rejects a step resubmission inside the cooldown window.
	ErrStepCooldown = errors.New("step resubmitted too soon")
)
