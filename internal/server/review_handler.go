package server

import (
	"encoding/json"
	"net/http"
)

type startReviewRequest struct {
	RepoURL string `json:"repo_url"`
}

// handleReviewCollection handles POST /api/review - start a review (§6).
func (s *Server) handleReviewCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}

	id := s.review.Start(req.RepoURL)
	writeJSON(w, http.StatusOK, map[string]string{"review_id": id})
}

// getReview handles GET /api/review/{id}.
func (s *Server) getReview(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := s.review.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// streamReview handles GET /api/review/{id}/stream - SSE event stream.
func (s *Server) streamReview(w http.ResponseWriter, r *http.Request, id string) {
	sub, ok := s.review.Subscribe(id)
	if !ok {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	streamEvents(w, r, sub)
}
