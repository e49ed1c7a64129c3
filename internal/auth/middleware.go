package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey keeps claims private to this package's context values.
type contextKey struct{}

var claimsKey contextKey

// Middleware enforces bearer authentication and role checks on handlers.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates middleware backed by the given verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Require wraps next so it runs only for requests carrying a valid token
// whose role satisfies required.
func (m *Middleware) Require(required Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !claims.Role.Allows(required) {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) authenticate(r *http.Request) (*Claims, error) {
	if m.verifier.Disabled() {
		return m.verifier.Verify("")
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	return m.verifier.Verify(token)
}

// ClaimsFromContext returns the verified claims stored by Require, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// Subject returns the acting principal for audit purposes.
func Subject(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "unknown"
}

// writeAuthError writes the API error envelope without importing the api
// package (which imports this one).
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"result":  "error",
		"code":    code,
		"message": message,
	})
}
