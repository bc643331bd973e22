package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/handler/dto"
	"github.com/mtlprog/slaola/internal/middleware"
)

// handleCreateIssue registers an issue and assigns its limits.
func (h *Handler) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client, err := middleware.GetClientFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.CreateIssueRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	issue := &domain.Issue{
		ProjectID:    req.ProjectID,
		Subject:      req.Subject,
		CustomFields: req.CustomFields,
	}
	if req.CreatedAt != nil {
		issue.CreatedAt = *req.CreatedAt
	}

	created, assignment, err := h.issueService.CreateIssue(ctx, issue, &client.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.CreateIssueResponse{
		Issue:  dto.ToIssueResponse(created, time.Now()),
		Limits: dto.ToLimitAssignmentResponse(assignment),
	})
}

// handleGetIssue returns an issue with its limit history.
func (h *Handler) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	issueID, ok := extractUUID(w, r, "issue")
	if !ok {
		return
	}

	details, err := h.issueService.GetIssue(r.Context(), issueID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response := dto.IssueDetailResponse{
		Issue:  dto.ToIssueResponse(details.Issue, time.Now()),
		Events: make([]dto.LimitEventInfo, len(details.Events)),
	}
	for i, event := range details.Events {
		response.Events[i] = dto.ToLimitEventInfo(event)
	}

	respondJSON(w, http.StatusOK, response)
}

// handleAssignLimits assigns limits to an existing issue on request.
func (h *Handler) handleAssignLimits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client, err := middleware.GetClientFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	issueID, ok := extractUUID(w, r, "issue")
	if !ok {
		return
	}

	assignment, err := h.limitService.AssignLimits(ctx, issueID, &client.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToLimitAssignmentResponse(assignment))
}

// handleListIssues returns a page of project issues with filters.
func (h *Handler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	projectID, ok := extractProjectID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filters := dto.ListIssuesFilters{
		MissingLimits: query.Get("missing_limits") == "true",
		Limit:         50,
	}

	switch breached := domain.LimitKind(query.Get("breached")); breached {
	case "", domain.LimitKindSLA, domain.LimitKindOLA:
		filters.Breached = string(breached)
	default:
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "breached must be 'sla' or 'ola'")
		return
	}

	if sortParam := query.Get("sort"); sortParam != "" {
		filters.Sort = splitAndTrim(sortParam, ",")
	}

	if limitParam := query.Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 200 {
			filters.Limit = n
		}
	}
	if offsetParam := query.Get("offset"); offsetParam != "" {
		if n, err := strconv.Atoi(offsetParam); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	issues, total, err := h.issueService.ListIssues(r.Context(), filters.ToListFilters(projectID))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	now := time.Now()
	items := make([]dto.IssueResponse, len(issues))
	for i, issue := range issues {
		items[i] = dto.ToIssueResponse(issue, now)
	}

	respondJSON(w, http.StatusOK, dto.IssuesListResponse{
		Issues: items,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
