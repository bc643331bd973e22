package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/handler/dto"
)

type contextKey string

const (
	// ContextKeyClient is the key for storing the client in request context.
	ContextKeyClient contextKey = "client"
)

// ClientFinder looks up API clients by token.
type ClientFinder interface {
	GetByToken(ctx context.Context, token string) (*domain.Client, error)
}

// AuthMiddleware handles Bearer token authentication.
type AuthMiddleware struct {
	clients ClientFinder
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(clients ClientFinder) *AuthMiddleware {
	return &AuthMiddleware{
		clients: clients,
	}
}

// Authenticate validates Bearer token and adds the client to request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "INVALID_TOKEN", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(w, "INVALID_TOKEN", "invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			unauthorized(w, "INVALID_TOKEN", "missing token")
			return
		}

		client, err := m.clients.GetByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrClientNotFound) {
				unauthorized(w, "INVALID_TOKEN", "invalid token")
				return
			}
			slog.Error("failed to look up client", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			return
		}

		if !client.IsActive {
			unauthorized(w, "CLIENT_INACTIVE", "client inactive")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClient, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientFromContext retrieves the authenticated client from request context.
func GetClientFromContext(ctx context.Context) (*domain.Client, error) {
	client, ok := ctx.Value(ContextKeyClient).(*domain.Client)
	if !ok || client == nil {
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

func unauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, code, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.NewErrorResponse(code, message)); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
