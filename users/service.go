// Package users, as part of the user profile management module.
// This file, `service.go`, contains the business logic for the profile and
// the administrative account listing.
package users

import (
	"context"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/operations"
)

// UserLister is the part of auth.Store the admin listing needs.
type UserLister interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// StatsSource summarizes a user's ledger. *operations.OperationService satisfies it.
type StatsSource interface {
	Stats(ctx context.Context, ownerID int64) (*operations.Stats, error)
}

// UserService provides methods for user profile management.
type UserService struct {
	users UserLister
	stats StatsSource
}

// NewUserService creates a new UserService.
func NewUserService(users UserLister, stats StatsSource) *UserService {
	return &UserService{users: users, stats: stats}
}

// GetProfile builds the profile of the principal attached by the access gate.
// The account itself was already re-read by the gate, so only the stats hit the store.
func (s *UserService) GetProfile(ctx context.Context, p *auth.Principal) (*ProfileResponse, error) {
	stats, err := s.stats.Stats(ctx, p.User.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{User: p.User, TokenRole: p.Role, Stats: stats}, nil
}

// ListUsers returns every account ordered by id.
func (s *UserService) ListUsers(ctx context.Context) (*UserListResponse, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	if users == nil {
		users = []auth.User{}
	}
	return &UserListResponse{Users: users, Count: len(users)}, nil
}
