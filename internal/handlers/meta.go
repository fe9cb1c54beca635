package handlers

import (
	"net/http"

	"clarity-backend/internal/models"
	"clarity-backend/internal/personality"
)

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Personalities lists the labels a client may send with a chat request.
func Personalities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PersonalitiesResponse{
		Personalities: personality.Labels(),
		Default:       personality.Default.Label(),
	})
}
