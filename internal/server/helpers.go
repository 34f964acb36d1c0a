package server

import (
	"net/http"

	"github.com/ternarybob/reviewsvc/internal/handlers"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	_ = handlers.WriteJSON(w, statusCode, data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	_ = handlers.WriteError(w, statusCode, message)
}
