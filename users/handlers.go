// Package users encapsulates the profile endpoint and the administrative
// account listing.
// This file, `handlers.go`, is the HTTP boundary of the module.
package users

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/auth"
)

// UserHandlers provides HTTP handlers for user profile management.
type UserHandlers struct {
	service *UserService
	logger  *zap.Logger
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{service: service, logger: logger}
}

// HandleGetProfile godoc
// @Summary Get current user's profile
// @Description Returns the authenticated account and a summary of its operations.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.ProfileResponse "Successfully retrieved user profile"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /profile [get]
func (h *UserHandlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, h.logger, apperror.NewAuthError("authentication required", nil))
			return
		}

		profile, err := h.service.GetProfile(r.Context(), p)
		if err != nil {
			apperror.WriteError(w, r, h.logger, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleListUsers godoc
// @Summary List all users
// @Description Lists every registered account. Requires the admin role.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.UserListResponse
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} apperror.ErrorResponse "Forbidden - Admin role required"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /admin/users [get]
func (h *UserHandlers) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.service.ListUsers(r.Context())
		if err != nil {
			apperror.WriteError(w, r, h.logger, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}
