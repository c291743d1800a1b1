// Package users, as part of the user profile management module.
// This file, `dto.go`, defines the response bodies of the profile and admin endpoints.
package users

import (
	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/operations"
)

// ProfileResponse is the caller's account together with a summary of their ledger.
// @Description Profile of the authenticated user
type ProfileResponse struct {
	User *auth.User `json:"user"`
	// Role asserted by the caller's token. It can differ from user.role until the next login.
	TokenRole auth.Role         `json:"token_role"`
	Stats     *operations.Stats `json:"stats"`
}

// UserListResponse is the body of GET /admin/users.
// @Description All registered accounts, oldest first
type UserListResponse struct {
	Users []auth.User `json:"users"`
	Count int         `json:"count"`
}
