// Package auth is responsible for handling authentication and authorization logic.
// This includes user registration, login, token generation (JWT), and the
// per-request access gate.
package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
)

// AuthService provides registration and login on top of the credential store,
// the password hasher and the token manager.
type AuthService struct {
	store  Store
	hasher *PasswordHasher
	tokens *TokenManager
	policy *CredentialPolicy
	logger *zap.Logger
}

// NewAuthService creates a new AuthService. Dependencies are injected explicitly.
func NewAuthService(store Store, hasher *PasswordHasher, tokens *TokenManager, policy *CredentialPolicy, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		policy: policy,
		logger: logger,
	}
}

// Register creates a new standard account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	return s.createUser(ctx, req.Username, req.Password, RoleStandard)
}

// CreateAdmin creates an admin account. It is only reachable from the CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*User, error) {
	return s.createUser(ctx, username, password, RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, username, password string, role Role) (*User, error) {
	if err := s.policy.Check(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.NewInternalError("failed to create user", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash, role)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, apperror.NewConflictError("username already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates a user and returns a signed token.
// Unknown usernames and wrong passwords produce the same error, after the same amount of work.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperror.NewValidationError("username and password are required", nil)
	}

	invalid := apperror.NewAuthError("invalid credentials", nil)

	user, err := s.store.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Burn(req.Password)
			return nil, invalid
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password hash integrity failure", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, apperror.NewInternalError("internal server error", err)
	}
	if !ok {
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}

	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
