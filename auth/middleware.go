// Package auth, as part of the authentication module.
// This file, `middleware.go`, is the access gate in front of every protected route.
package auth

import (
	"context"
	"errors"
	"net/http"
	// `strings` for splitting the Authorization header.
	"strings"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
)

// TokenValidator is the part of TokenManager the gate needs.
type TokenValidator interface {
	Validate(tokenString string) (*Identity, error)
}

// UserFinder is the part of Store the gate needs.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}

// bearerToken pulls the token out of an "Authorization: Bearer {token}" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Middleware creates the JWT authentication middleware.
// It validates the bearer token once, re-reads the account by the token's subject
// so deleted accounts are refused, and attaches the Principal to the context.
// The returned middleware conforms to the standard `func(next http.Handler) http.Handler` shape.
func Middleware(tokens TokenValidator, users UserFinder, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				apperror.WriteError(w, r, logger, apperror.NewAuthError("authorization header must be Bearer {token}", nil))
				return
			}

			identity, err := tokens.Validate(tokenString)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrTokenExpired) {
					msg = "token has expired"
				}
				logger.Debug("token rejected", zap.Error(err))
				apperror.WriteError(w, r, logger, apperror.NewAuthError(msg, err))
				return
			}

			user, err := users.FindByID(r.Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					apperror.WriteError(w, r, logger, apperror.NewAuthError("invalid token", err))
					return
				}
				apperror.WriteError(w, r, logger, apperror.NewDatabaseError("failed to resolve user", err))
				return
			}

			ctx := NewContextWithPrincipal(r.Context(), &Principal{User: user, Role: identity.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
