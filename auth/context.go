// Package auth, as part of the authentication module.
// This file, `context.go`, carries the authenticated principal through the
// request's `context.Context` and provides the role gate.
package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
)

// `contextKey` is a custom type for context keys so they cannot collide with
// keys defined in other packages.
type contextKey string

const principalContextKey contextKey = "auth_principal"

// Principal is the identity the gate attaches to a request: the account as
// currently stored, and the role asserted by the token.
type Principal struct {
	User *User
	// Role comes from the token, not from User.Role. A role change only takes
	// effect once the user logs in again.
	Role Role
}

// NewContextWithPrincipal returns a child context carrying p.
func NewContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}

// RequireRole returns middleware that lets the request through only when the
// principal holds one of roles. It must be mounted after Middleware.
func RequireRole(logger *zap.Logger, roles ...Role) func(next http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				apperror.WriteError(w, r, logger, apperror.NewAuthError("authentication required", nil))
				return
			}
			if _, ok := allowed[p.Role]; !ok {
				apperror.WriteError(w, r, logger, apperror.NewUnauthorizedError("insufficient permissions", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
