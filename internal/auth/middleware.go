package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
)

// contextKey is unexported so no other package can read or shadow the
// identity we store in the request context.
type contextKey string

const identityKey contextKey = "identity"

// Verifier turns a raw bearer token into an identity. An empty token must
// fail with apperror.ErrUnauthorized and a bad one with apperror.ErrInvalidToken.
// *TokenService and service.AuthService both satisfy it.
type Verifier interface {
	Authenticate(token string) (model.Identity, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from "Authorization: Bearer <token>", validates it, and
// stores the caller's identity in the request context. The two failure modes
// get different error codes so clients can tell "log in" from "log in again":
//
//	no header / not a Bearer header → 401 {"error":"unauthorized"}
//	bad signature / expired         → 401 {"error":"invalid_token"}
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Authenticate(BearerToken(r))
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					writeAuthError(w, "unauthorized", "authentication required")
					return
				}
				writeAuthError(w, "invalid_token", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken returns the token from the Authorization header, or "".
// The scheme is matched case-insensitively per RFC 6750.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithIdentity returns a copy of ctx carrying id. Exported for handler tests.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller.
// Returns (zero, false) if RequireAuth did not run for this request.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok && id.UserID != ""
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="contract-auditor"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
