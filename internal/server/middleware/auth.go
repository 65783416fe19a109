// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// identityKey is the context key for storing the authenticated caller.
const identityKey ContextKey = "identity"

// Identity is the caller as asserted by a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// TokenValidator is an interface for validating bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (Identity, error)
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the
// caller's identity to the request context. WebSocket upgrades may pass the
// token in the "token" query parameter since browsers cannot set headers on them.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := validator.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, true
			}
		}
		return "", false
	}

	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tokenString := strings.TrimSpace(parts[1])
	return tokenString, tokenString != ""
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity extracts the authenticated caller from the request context.
func GetIdentity(r *http.Request) (Identity, error) {
	id, ok := r.Context().Value(identityKey).(Identity)
	if !ok {
		return Identity{}, fmt.Errorf("identity not found in request context")
	}
	return id, nil
}
