// Package middleware provides HTTP middleware for the admin API.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HeaderAdminToken carries the admin shared secret or an admin JWT.
const HeaderAdminToken = "x-admin-token"

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const subjectKey ContextKey = "adminSubject"

// SharedSecretSubject is the subject recorded for requests authorized by the shared secret.
const SharedSecretSubject = "shared-secret"

// SecretVerifier checks a presented shared secret.
type SecretVerifier interface {
	Enabled() bool
	Verify(presented string) bool
}

// TokenValidator validates admin JWTs.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// SubjectGetter exposes the subject of validated token claims.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// AdminAuth rejects requests that present neither the shared secret nor a valid admin JWT.
// Either may be nil. When no secret is configured and there is no validator, every request
// passes.
func AdminAuth(secret SecretVerifier, tokens TokenValidator) func(http.Handler) http.Handler {
	secretEnabled := secret != nil && secret.Enabled()
	return func(next http.Handler) http.Handler {
		if !secretEnabled && tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := presentedToken(r)
			if presented == "" {
				unauthorized(w)
				return
			}

			if secretEnabled && secret.Verify(presented) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, SharedSecretSubject)))
				return
			}

			if tokens != nil {
				if claims, err := tokens.ValidateToken(presented); err == nil {
					subject, _ := claims.GetSubject()
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
					return
				}
			}

			unauthorized(w)
		})
	}
}

// presentedToken reads the admin header, falling back to an Authorization bearer token.
func presentedToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(HeaderAdminToken)); token != "" {
		return token
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// GetSubject returns who authorized the request.
func GetSubject(r *http.Request) (string, error) {
	subject, ok := r.Context().Value(subjectKey).(string)
	if !ok {
		return "", fmt.Errorf("admin subject not found in request context")
	}
	return subject, nil
}
