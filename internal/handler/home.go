package handler

import (
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
)

// HandleHome describes the service.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "taskdesk",
		"status":  "running",
		"docs":    "/docs",
		"healthz": "/healthz",
	})
}

// HandleNotFound answers any unmatched route.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, withMessage(domain.ErrNotFound, "Not Found - "+r.URL.Path))
}
