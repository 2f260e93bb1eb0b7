package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

// Client talks to the external step grading collaborator over HTTP. The
// collaborator accepts {stepNumber, content} and returns an attempt-shaped
// result; any failure is transient from the caller's point of view.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type gradeRequest struct {
	StepNumber int    `json:"stepNumber"`
	Content    string `json:"content"`
}

type gradeResponse struct {
	Score          int                `json:"score"`
	Feedback       string             `json:"feedback"`
	ScoreBreakdown []domain.ScoreItem `json:"scoreBreakdown,omitempty"`
}

func (c *Client) GradeStep(ctx context.Context, projectID string, stepNumber int, content string) (domain.StepAttempt, error) {
	body, err := json.Marshal(gradeRequest{StepNumber: stepNumber, Content: content})
	if err != nil {
		return domain.StepAttempt{}, fmt.Errorf("marshal grade request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/grade", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.StepAttempt{}, fmt.Errorf("build grade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.StepAttempt{}, fmt.Errorf("call grader: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.StepAttempt{}, fmt.Errorf("grader returned status %d", resp.StatusCode)
	}

	var graded gradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&graded); err != nil {
		return domain.StepAttempt{}, fmt.Errorf("decode grade response: %w", err)
	}

	return domain.StepAttempt{
		StepNumber:     stepNumber,
		Score:          graded.Score,
		Feedback:       graded.Feedback,
		ScoreBreakdown: graded.ScoreBreakdown,
	}, nil
}
