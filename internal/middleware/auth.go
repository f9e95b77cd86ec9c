package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// TokenVerifier verifies a session token with the identity provider
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*identity.Identity, error)
}

// RequireAuth verifies the bearer token and stores the caller's identity in
// the request context. Requests without a valid token get a 401.
func RequireAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				model.NewUnauthorizedError("Missing bearer token").WriteJSON(w)
				return
			}

			ident, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) {
					model.NewUnauthorizedError("Invalid session token").WriteJSON(w)
					return
				}
				model.NewInternalError("Identity verification failed").WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// OptionalAuth verifies the bearer token when one is present. Anonymous
// requests pass through, but a token that fails verification still gets a
// 401 rather than silently downgrading to anonymous.
func OptionalAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) {
					model.NewUnauthorizedError("Invalid session token").WriteJSON(w)
					return
				}
				model.NewInternalError("Identity verification failed").WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// RequireOrgAdmin rejects callers that do not administer an organization.
// It must run after RequireAuth.
func RequireOrgAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := GetIdentity(r.Context())
		if ident == nil {
			model.NewUnauthorizedError("Authentication required").WriteJSON(w)
			return
		}
		if !ident.IsOrgAdmin() {
			model.NewForbiddenError("Organization admin role required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a context carrying the given identity
func WithIdentity(ctx context.Context, ident *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity extracts the verified caller from context, nil when absent
func GetIdentity(ctx context.Context) *identity.Identity {
	if ident, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return ident
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
