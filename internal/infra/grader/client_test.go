package grader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGradeStepRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/grade" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			StepNumber int    `json:"stepNumber"`
			Content    string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.StepNumber != 3 || req.Content != "my design sketch" {
			t.Fatalf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"score":    74,
			"feedback": "solid concept, expand the constraints",
			"scoreBreakdown": []map[string]any{
				{"criteria": "clarity", "score": 18, "maxScore": 25},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	attempt, err := client.GradeStep(context.Background(), "p1", 3, "my design sketch")
	if err != nil {
		t.Fatalf("grade step: %v", err)
	}
	if attempt.StepNumber != 3 || attempt.Score != 74 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if len(attempt.ScoreBreakdown) != 1 || attempt.ScoreBreakdown[0].Criteria != "clarity" {
		t.Fatalf("breakdown not decoded: %+v", attempt.ScoreBreakdown)
	}
}

func TestGradeStepSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GradeStep(context.Background(), "p1", 1, "anything"); err == nil {
		t.Fatalf("expected transient error")
	}
}
