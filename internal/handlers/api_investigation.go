package handlers

import (
	"log"
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
)

// handleGetInvestigation handles GET /api/v1/users/{user}/investigation
func (h *APIHandler) handleGetInvestigation(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	if user == "" {
		api.RespondError(w, http.StatusBadRequest, "User is required")
		return
	}

	investigation, err := h.investigation.BuildInvestigation(user)
	if err != nil {
		log.Printf("Failed to build investigation for %s: %v", user, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to build investigation")
		return
	}
	api.RespondJSON(w, http.StatusOK, investigation)
}
