package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists step attempt histories and quiz attempts. It
// implements app.AttemptRepository and app.QuizAttemptRepository.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) AppendStepAttempt(ctx context.Context, projectID string, attempt domain.StepAttempt) error {
	breakdown, err := json.Marshal(attempt.ScoreBreakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO edp_steps (project_id, sequence_index, step_number, score, content, feedback, score_breakdown, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		projectID, attempt.SequenceIndex, attempt.StepNumber, attempt.Score,
		attempt.Content, attempt.Feedback, breakdown, attempt.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert step attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListStepAttempts(ctx context.Context, projectID string) ([]domain.StepAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sequence_index, step_number, score, content, feedback, score_breakdown, teacher_score, teacher_comment, submitted_at
		FROM edp_steps
		WHERE project_id = $1
		ORDER BY sequence_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list step attempts: %w", err)
	}
	defer rows.Close()

	var history []domain.StepAttempt
	for rows.Next() {
		var (
			attempt      domain.StepAttempt
			rawBreakdown []byte
		)
		if err := rows.Scan(
			&attempt.SequenceIndex, &attempt.StepNumber, &attempt.Score,
			&attempt.Content, &attempt.Feedback, &rawBreakdown,
			&attempt.TeacherScore, &attempt.TeacherComment, &attempt.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan step attempt: %w", err)
		}
		if len(rawBreakdown) > 0 {
			if err := json.Unmarshal(rawBreakdown, &attempt.ScoreBreakdown); err != nil {
				return nil, fmt.Errorf("unmarshal breakdown: %w", err)
			}
		}
		history = append(history, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step attempts: %w", err)
	}
	return history, nil
}

func (s *AttemptStore) SetTeacherReview(ctx context.Context, projectID string, sequenceIndex, score int, comment string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE edp_steps
		SET teacher_score = $3, teacher_comment = $4
		WHERE project_id = $1 AND sequence_index = $2`,
		projectID, sequenceIndex, score, comment)
	if err != nil {
		return fmt.Errorf("update teacher review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) RecordQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	details, err := json.Marshal(attempt.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (user_id, score, total, percent, passed, elapsed_seconds, details, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.UserID, attempt.Score, attempt.Total, attempt.Percent,
		attempt.Passed, attempt.ElapsedSeconds, details, attempt.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) TopQuizAttempts(ctx context.Context, limit int) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, score, total, percent, passed, elapsed_seconds, submitted_at
		FROM quiz_attempts
		ORDER BY score DESC, elapsed_seconds ASC, submitted_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var attempt domain.QuizAttempt
		if err := rows.Scan(
			&attempt.UserID, &attempt.Score, &attempt.Total, &attempt.Percent,
			&attempt.Passed, &attempt.ElapsedSeconds, &attempt.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz attempts: %w", err)
	}
	return attempts, nil
}

func (s *AttemptStore) ListQuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, score, total, percent, passed, elapsed_seconds, details, submitted_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts for user: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var (
			attempt    domain.QuizAttempt
			rawDetails []byte
		)
		if err := rows.Scan(
			&attempt.UserID, &attempt.Score, &attempt.Total, &attempt.Percent,
			&attempt.Passed, &attempt.ElapsedSeconds, &rawDetails, &attempt.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		if len(rawDetails) > 0 {
			if err := json.Unmarshal(rawDetails, &attempt.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz attempts: %w", err)
	}
	return attempts, nil
}
