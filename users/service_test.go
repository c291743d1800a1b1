package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/operations"
)

func TestUserService_GetProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ops := operations.NewOperationService(operations.NewMemoryLedger(nil), nil, zap.NewNop())
	for _, owner := range []int64{1, 1, 2} {
		_, err := ops.Create(ctx, owner, json.RawMessage(`{"x":1}`))
		require.NoError(t, err)
	}

	svc := NewUserService(auth.NewMemoryStore(), ops)
	p := &auth.Principal{User: &auth.User{ID: 1, Username: "alice", Role: auth.RoleStandard}, Role: auth.RoleAdmin}

	profile, err := svc.GetProfile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, auth.RoleAdmin, profile.TokenRole)
	assert.Equal(t, int64(2), profile.Stats.Count)
	assert.Equal(t, int64(2), profile.Stats.RecentCount)
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := auth.NewMemoryStore()

	empty, err := NewUserService(store, nil).ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)
	assert.NotNil(t, empty.Users)

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := store.CreateUser(ctx, name, "hash", auth.RoleStandard)
		require.NoError(t, err)
	}

	resp, err := NewUserService(store, nil).ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "carol", resp.Users[0].Username)
	assert.Equal(t, int64(3), resp.Users[2].ID)
}

type failingLister struct{}

func (failingLister) ListUsers(context.Context) ([]auth.User, error) {
	return nil, errors.New("timeout")
}

func TestUserHandlers_ListUsersHidesHashes(t *testing.T) {
	t.Parallel()
	store := auth.NewMemoryStore()
	_, err := store.CreateUser(context.Background(), "alice", "$2a$10$secret-hash", auth.RoleStandard)
	require.NoError(t, err)

	h := NewUserHandlers(NewUserService(store, nil), zap.NewNop())
	rec := httptest.NewRecorder()
	h.HandleListUsers().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUserHandlers_ListUsersStoreFailure(t *testing.T) {
	t.Parallel()
	h := NewUserHandlers(NewUserService(failingLister{}, nil), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleListUsers().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to list users", body.Error)
}

func TestUserHandlers_ProfileRequiresPrincipal(t *testing.T) {
	t.Parallel()
	h := NewUserHandlers(NewUserService(auth.NewMemoryStore(), nil), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleGetProfile().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
