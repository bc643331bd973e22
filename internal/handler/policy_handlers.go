package handler

import (
	"net/http"
	"strings"

	"github.com/mtlprog/slaola/internal/handler/dto"
	"github.com/mtlprog/slaola/internal/service"
)

// handleCreatePolicy creates a policy for a project.
func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePolicyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	policy, err := h.policyService.CreatePolicy(r.Context(), service.CreatePolicyParams{
		ProjectID:          req.ProjectID,
		Name:               req.Name,
		Products:           req.Products,
		SLAHours:           req.SLAHours,
		OLAHours:           req.OLAHours,
		BusinessHoursStart: req.BusinessHoursStart,
		BusinessHoursEnd:   req.BusinessHoursEnd,
		BusinessDays:       req.BusinessDays,
		Timezone:           req.Timezone,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToPolicyResponse(policy))
}

// handleFindPolicy returns the policy covering ?product= within a project.
func (h *Handler) handleFindPolicy(w http.ResponseWriter, r *http.Request) {
	projectID, ok := extractProjectID(w, r)
	if !ok {
		return
	}

	product := strings.TrimSpace(r.URL.Query().Get("product"))
	if product == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "product is required")
		return
	}

	policy, err := h.policyService.FindPolicy(r.Context(), projectID, product)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToPolicyResponse(policy))
}

// handleGetPolicy returns a policy by ID.
func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID, ok := extractUUID(w, r, "policy")
	if !ok {
		return
	}

	policy, err := h.policyService.GetPolicy(r.Context(), policyID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToPolicyResponse(policy))
}
