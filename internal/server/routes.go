// -----------------------------------------------------------------------
// Last Modified: Thursday, 9th October 2025 8:53:55 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes (§6).
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)

	// API routes - Review
	mux.HandleFunc("/api/review", s.handleReviewCollection) // POST - start review
	mux.HandleFunc("/api/review/", s.handleReviewRoutes)    // GET /{id}, GET /{id}/stream

	// API routes - Grade
	mux.HandleFunc("/api/grade", s.handleGradeCollection) // POST - start grade
	mux.HandleFunc("/api/grade/", s.handleGradeRoutes)    // GET /{id}, GET /{id}/stream

	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// handleReviewRoutes routes /api/review/{id} and /api/review/{id}/stream
// requests. The "/stream" suffix is checked before falling back to a plain
// snapshot lookup, so a stream request never reaches getReview with the
// suffix still attached to the id.
func (s *Server) handleReviewRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireGet(w, r) {
		return
	}

	matched := RouteByPathSuffix(w, r, "/api/review/", []PathSuffixRouter{
		{Suffix: "/stream", Handler: s.reviewStreamBySuffix},
	})
	if matched {
		return
	}

	id := r.URL.Path[len("/api/review/"):]
	if id == "" {
		writeError(w, http.StatusNotFound, "review id required")
		return
	}
	s.getReview(w, r, id)
}

func (s *Server) reviewStreamBySuffix(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.URL.Path[len("/api/review/"):], "/stream")
	s.streamReview(w, r, id)
}

// handleGradeRoutes routes /api/grade/{id} and /api/grade/{id}/stream.
func (s *Server) handleGradeRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireGet(w, r) {
		return
	}

	matched := RouteByPathSuffix(w, r, "/api/grade/", []PathSuffixRouter{
		{Suffix: "/stream", Handler: s.gradeStreamBySuffix},
	})
	if matched {
		return
	}

	id := r.URL.Path[len("/api/grade/"):]
	if id == "" {
		writeError(w, http.StatusNotFound, "grade id required")
		return
	}
	s.getGrade(w, r, id)
}

func (s *Server) gradeStreamBySuffix(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.URL.Path[len("/api/grade/"):], "/stream")
	s.streamGrade(w, r, id)
}
