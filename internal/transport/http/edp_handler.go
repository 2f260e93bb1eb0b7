package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/akkalak213/edpplatform-sub000/internal/app"
	"github.com/akkalak213/edpplatform-sub000/internal/domain"
)

// EDPHandler serves the project-journal endpoints: step submission,
// progression, history, teacher review, and the quiz leaderboard.
type EDPHandler struct {
	service *app.AssessmentService
}

func NewEDPHandler(service *app.AssessmentService) *EDPHandler {
	return &EDPHandler{service: service}
}

func (h *EDPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/steps", h.handleSubmitStep)
	mux.HandleFunc("/api/progression", h.handleProgression)
	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/api/review", h.handleReview)
	mux.HandleFunc("/api/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/api/quiz/history", h.handleQuizHistory)
}

type submitStepRequest struct {
	ProjectID  string `json:"projectId"`
	StepNumber int    `json:"stepNumber"`
	Content    string `json:"content"`
}

type submitStepResponse struct {
	Attempt     domain.StepAttempt      `json:"attempt"`
	Progression domain.ProgressionState `json:"progression"`
}

func (h *EDPHandler) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProjectID == "" || req.StepNumber < 1 {
		http.Error(w, "missing projectId or stepNumber", http.StatusBadRequest)
		return
	}

	attempt, progression, err := h.service.SubmitStep(r.Context(), req.ProjectID, req.StepNumber, req.Content)
	if errors.Is(err, domain.ErrStepCooldown) {
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}
	if err != nil {
		// Grader failures are transient; the client may retry unchanged.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, submitStepResponse{Attempt: attempt, Progression: progression})
}

func (h *EDPHandler) handleProgression(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		http.Error(w, "missing projectId", http.StatusBadRequest)
		return
	}
	progression, err := h.service.Progression(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, progression)
}

func (h *EDPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		http.Error(w, "missing projectId", http.StatusBadRequest)
		return
	}
	history, err := h.service.History(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type reviewRequest struct {
	ProjectID     string `json:"projectId"`
	SequenceIndex int    `json:"sequenceIndex"`
	Score         int    `json:"score"`
	Comment       string `json:"comment"`
}

func (h *EDPHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := h.service.ReviewStep(r.Context(), req.ProjectID, req.SequenceIndex, req.Score, req.Comment)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reviewed"})
}

func (h *EDPHandler) handleQuizHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	history, err := h.service.QuizHistory(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *EDPHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
