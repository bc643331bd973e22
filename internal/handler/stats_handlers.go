package handler

import (
	"net/http"

	"github.com/mtlprog/slaola/internal/handler/dto"
)

// handleGetProjectStats returns limit coverage and breach counts for a project.
func (h *Handler) handleGetProjectStats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := extractProjectID(w, r)
	if !ok {
		return
	}

	stats, err := h.issueService.GetProjectStats(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch project stats")
		return
	}

	respondJSON(w, http.StatusOK, dto.ToProjectStatsResponse(stats))
}
