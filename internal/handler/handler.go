package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/handler/dto"
	"github.com/mtlprog/slaola/internal/middleware"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/mtlprog/slaola/internal/service"
	"github.com/mtlprog/slaola/internal/static"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool           *pgxpool.Pool
	limitService   *service.LimitService
	policyService  *service.PolicyService
	issueService   *service.IssueService
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool) *Handler {
	// Create repositories
	issueRepo := repository.NewIssueRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	eventRepo := repository.NewLimitEventRepository(pool)
	clientRepo := repository.NewClientRepository(pool)

	// Create services
	limitService := service.NewLimitService(pool, issueRepo, policyRepo, eventRepo)
	policyService := service.NewPolicyService(pool, policyRepo)
	issueService := service.NewIssueService(issueRepo, policyRepo, eventRepo, limitService)

	return &Handler{
		pool:           pool,
		limitService:   limitService,
		policyService:  policyService,
		issueService:   issueService,
		authMiddleware: middleware.NewAuthMiddleware(clientRepo),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// API reference
	mux.HandleFunc("GET /api.md", h.handleAPIMd)

	// API v1 routes with authentication
	mux.Handle("POST /api/v1/deadlines", h.authenticated(h.handleComputeDeadline))
	mux.Handle("POST /api/v1/policies", h.authenticated(h.handleCreatePolicy))
	mux.Handle("GET /api/v1/policies/{id}", h.authenticated(h.handleGetPolicy))
	mux.Handle("GET /api/v1/projects/{id}/policy", h.authenticated(h.handleFindPolicy))
	mux.Handle("GET /api/v1/projects/{id}/issues", h.authenticated(h.handleListIssues))
	mux.Handle("GET /api/v1/projects/{id}/stats", h.authenticated(h.handleGetProjectStats))
	mux.Handle("POST /api/v1/issues", h.authenticated(h.handleCreateIssue))
	mux.Handle("GET /api/v1/issues/{id}", h.authenticated(h.handleGetIssue))
	mux.Handle("POST /api/v1/issues/{id}/limits", h.authenticated(h.handleAssignLimits))
}

func (h *Handler) authenticated(fn http.HandlerFunc) http.Handler {
	return h.authMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleAPIMd serves the embedded API reference.
func (h *Handler) handleAPIMd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.APIMd))
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError writes the response mapped from a domain error.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeRequest decodes and validates a JSON body into dst.
// Returns false if the request was rejected (error already sent to client).
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}

	if err := dto.Validate(dst); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return false
	}

	return true
}

// extractUUID extracts and validates a UUID path parameter named id.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractUUID(w http.ResponseWriter, r *http.Request, resource string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", resource+" id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", resource+" id must be a valid UUID")
		return "", false
	}

	return id, true
}

// extractProjectID extracts the project ID from path parameter.
func extractProjectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	projectID := r.PathValue("id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "project id is required")
		return "", false
	}
	return projectID, true
}
