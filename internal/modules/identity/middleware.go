package identity

import (
	"context"
	"net/http"

	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/policy"
)

type contextKey struct{}

// FromContext returns the Identity stored by Middleware. The zero Identity
// (Kind "") means Middleware did not run on this route.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// WithIdentity is used by tests to build request contexts directly.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware resolves the caller's identity and stores it in the request
// context. Every route in the API runs behind it.
func Middleware(rs *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := rs.Resolve(w, r)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireUser rejects guests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsUser() {
			httpx.RespondError(w, httpx.Unauthenticated())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAction rejects guests with 401 and users whose role the policy
// table does not allow for the action with 403.
func RequireAction(action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if !id.IsUser() {
				httpx.RespondError(w, httpx.Unauthenticated())
				return
			}
			if !policy.Allows(id.Role, action) {
				httpx.RespondError(w, httpx.Forbidden("FORBIDDEN", "not permitted for this role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
