package app_test

import (
	"testing"

	"github.com/akkalak213/edpplatform-sub000/internal/app"
	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

func TestComputeProgression(t *testing.T) {
	cases := []struct {
		name     string
		attempts []domain.StepAttempt
		want     domain.ProgressionState
	}{
		{
			name:     "empty history starts at step one",
			attempts: nil,
			want:     domain.ProgressionState{CurrentStep: 1, Mode: domain.ModeFresh},
		},
		{
			name: "passing score advances to next step",
			attempts: []domain.StepAttempt{
				{StepNumber: 2, Score: 75, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 3, Mode: domain.ModeFresh},
		},
		{
			name: "failing score keeps the same step in revision",
			attempts: []domain.StepAttempt{
				{StepNumber: 1, Score: 80, SequenceIndex: 0},
				{StepNumber: 2, Score: 45, SequenceIndex: 1},
			},
			want: domain.ProgressionState{CurrentStep: 2, Mode: domain.ModeRevision},
		},
		{
			name: "score exactly at threshold passes",
			attempts: []domain.StepAttempt{
				{StepNumber: 3, Score: 60, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 4, Mode: domain.ModeFresh},
		},
		{
			name: "one below threshold fails",
			attempts: []domain.StepAttempt{
				{StepNumber: 3, Score: 59, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 3, Mode: domain.ModeRevision},
		},
		{
			name: "passing the final stage completes the cycle",
			attempts: []domain.StepAttempt{
				{StepNumber: 6, Score: 60, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 1, Mode: domain.ModeFresh, CycleComplete: true},
		},
		{
			name: "failing the final stage stays in revision",
			attempts: []domain.StepAttempt{
				{StepNumber: 6, Score: 59, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 6, Mode: domain.ModeRevision},
		},
		{
			name: "only the latest attempt counts",
			attempts: []domain.StepAttempt{
				{StepNumber: 1, Score: 90, SequenceIndex: 0},
				{StepNumber: 2, Score: 30, SequenceIndex: 1},
				{StepNumber: 2, Score: 65, SequenceIndex: 2},
			},
			want: domain.ProgressionState{CurrentStep: 3, Mode: domain.ModeFresh},
		},
		{
			name: "highest sequence index wins regardless of slice order",
			attempts: []domain.StepAttempt{
				{StepNumber: 4, Score: 90, SequenceIndex: 3},
				{StepNumber: 1, Score: 90, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 5, Mode: domain.ModeFresh},
		},
		{
			name: "out-of-range step number passes through unvalidated",
			attempts: []domain.StepAttempt{
				{StepNumber: 9, Score: 40, SequenceIndex: 0},
			},
			want: domain.ProgressionState{CurrentStep: 9, Mode: domain.ModeRevision},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := app.ComputeProgression(tc.attempts)
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeProgressionCustomConfig(t *testing.T) {
	cfg := app.ProgressionConfig{PassScore: 50, StageCount: 3}

	got := cfg.Compute([]domain.StepAttempt{{StepNumber: 3, Score: 50, SequenceIndex: 0}})
	want := domain.ProgressionState{CurrentStep: 1, Mode: domain.ModeFresh, CycleComplete: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got = cfg.Compute([]domain.StepAttempt{{StepNumber: 2, Score: 49, SequenceIndex: 0}})
	want = domain.ProgressionState{CurrentStep: 2, Mode: domain.ModeRevision}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestComputeProgressionIsPure(t *testing.T) {
	attempts := []domain.StepAttempt{
		{StepNumber: 1, Score: 70, SequenceIndex: 0},
		{StepNumber: 2, Score: 40, SequenceIndex: 1},
	}
	first := app.ComputeProgression(attempts)
	second := app.ComputeProgression(attempts)
	if first != second {
		t.Fatalf("repeated calls diverged: %+v vs %+v", first, second)
	}
	if attempts[0].Score != 70 || attempts[1].SequenceIndex != 1 {
		t.Fatalf("input history was mutated: %+v", attempts)
	}
}
