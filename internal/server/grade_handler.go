package server

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// handleGradeCollection handles POST /api/grade - start a grade (§6).
func (s *Server) handleGradeCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input model.GradeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := s.grade.Start(input)
	writeJSON(w, http.StatusOK, map[string]string{"grade_id": id, "status": string(model.GradeStatusPending)})
}

// getGrade handles GET /api/grade/{id}.
func (s *Server) getGrade(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := s.grade.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "grade not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// streamGrade handles GET /api/grade/{id}/stream - SSE event stream.
func (s *Server) streamGrade(w http.ResponseWriter, r *http.Request, id string) {
	sub, ok := s.grade.Subscribe(id)
	if !ok {
		writeError(w, http.StatusNotFound, "grade not found")
		return
	}
	streamEvents(w, r, sub)
}
