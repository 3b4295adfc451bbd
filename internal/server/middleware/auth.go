// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/nap-verifier/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// callerKey is the context key for the authenticated caller.
const callerKey ContextKey = "caller"

// TokenValidator validates bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (CallerGetter, error)
}

// CallerGetter extracts the caller identity from token claims.
type CallerGetter interface {
	GetCaller() types.Caller
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the caller to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.GetCaller())))
		})
	}
}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, caller types.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller extracts the authenticated caller from the request context.
func GetCaller(r *http.Request) (types.Caller, error) {
	caller, ok := r.Context().Value(callerKey).(types.Caller)
	if !ok {
		return types.Caller{}, fmt.Errorf("caller not found in request context")
	}
	return caller, nil
}
