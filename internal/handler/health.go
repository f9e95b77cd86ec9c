package handler

import (
	"net/http"
)

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
