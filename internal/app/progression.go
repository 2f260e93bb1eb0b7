package app

import "github.com/akkalak213/edpplatform-sub000/internal/domain"

const (
	// DefaultPassScore is the minimum score a step submission needs to
	// unlock the next stage. Exactly the threshold passes.
	DefaultPassScore = 60
	// DefaultStageCount is the number of stages in one design-process cycle.
	DefaultStageCount = 6
)

// ProgressionConfig carries the tunables of the progression rules.
type ProgressionConfig struct {
	PassScore  int
	StageCount int
}

// DefaultProgressionConfig returns the standard six-stage, 60-point rules.
func DefaultProgressionConfig() ProgressionConfig {
	return ProgressionConfig{PassScore: DefaultPassScore, StageCount: DefaultStageCount}
}

// ComputeProgression derives the current step from an ordered attempt history
// using the default rules. See ProgressionConfig.Compute.
func ComputeProgression(attempts []domain.StepAttempt) domain.ProgressionState {
	return DefaultProgressionConfig().Compute(attempts)
}

// Compute answers "what should the student work on next?" from the attempt
// history alone. It is pure and safe to call on every refresh.
//
// The latest attempt (highest SequenceIndex) decides: a passing score moves
// to the next stage in fresh mode, a failing score keeps the same stage in
// revision mode, and passing the final stage completes the cycle and reports
// stage 1 of a new one.
//
// Step numbers outside 1..StageCount are passed through, not validated;
// callers feeding malformed histories must guard the resulting CurrentStep.
func (c ProgressionConfig) Compute(attempts []domain.StepAttempt) domain.ProgressionState {
	if len(attempts) == 0 {
		return domain.ProgressionState{CurrentStep: 1, Mode: domain.ModeFresh}
	}

	last := attempts[0]
	for _, attempt := range attempts[1:] {
		if attempt.SequenceIndex >= last.SequenceIndex {
			last = attempt
		}
	}

	next := last.StepNumber
	mode := domain.ModeRevision
	if last.Score >= c.PassScore {
		next = last.StepNumber + 1
		mode = domain.ModeFresh
	}

	if next > c.StageCount {
		return domain.ProgressionState{CurrentStep: 1, Mode: domain.ModeFresh, CycleComplete: true}
	}
	return domain.ProgressionState{CurrentStep: next, Mode: mode}
}
