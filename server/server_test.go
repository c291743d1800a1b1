package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/config"
	"github.com/user/opledger-go/feed"
	"github.com/user/opledger-go/operations"
	"github.com/user/opledger-go/users"
)

type testApp struct {
	handler http.Handler
	store   *auth.MemoryStore
	authSvc *auth.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zap.NewNop()

	store := auth.NewMemoryStore()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := auth.NewTokenManager("server-test-secret-0123", 24*time.Hour)
	policy := auth.NewCredentialPolicy(config.PolicyConfig{UsernameMinLen: 3, UsernameMaxLen: 32, PasswordMinLen: 6, PasswordMaxLen: 72})
	authSvc := auth.NewAuthService(store, hasher, tokens, policy, logger)

	broadcaster := feed.NewBroadcaster(feed.DefaultBuffer, logger)
	opSvc := operations.NewOperationService(operations.NewMemoryLedger(nil), broadcaster, logger)

	h := NewRouter(Deps{
		Config:     &config.ServerConfig{CORSAllowedOrigins: []string{"*"}, RequestTimeout: 5 * time.Second},
		Logger:     logger,
		Tokens:     tokens,
		Users:      store,
		Auth:       auth.NewHandlers(authSvc, logger),
		Operations: operations.NewHandlers(opSvc, broadcaster, time.Second, logger),
		Profiles:   users.NewUserHandlers(users.NewUserService(store, opSvc), logger),
	})
	return &testApp{handler: h, store: store, authSvc: authSvc}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestRouter_AliceScenario(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), `"role":"standard"`)

	token := app.login(t, "alice", "secret1")

	rec = app.do(t, http.MethodPost, "/operations", token, `{"x":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodGet, "/operations", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list operations.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Operations, 1)
	assert.JSONEq(t, `{"x":1}`, string(list.Operations[0].Payload))

	rec = app.do(t, http.MethodPost, "/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	body := `{"username":"alice","password":"secret1"}`
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/register", "", body).Code)
	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, "/register", "", body).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodPost, "/register", "", `{"username":`).Code)
}

func TestRouter_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret1"}`).Code)

	wrong := app.do(t, http.MethodPost, "/login", "", `{"username":"alice","password":"nope-nope"}`)
	unknown := app.do(t, http.MethodPost, "/login", "", `{"username":"mallory","password":"nope-nope"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRouter_OperationsAreScopedToCaller(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	for _, name := range []string{"alice", "bobby"} {
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/register", "", `{"username":"`+name+`","password":"secret1"}`).Code)
	}
	alice := app.login(t, "alice", "secret1")
	bob := app.login(t, "bobby", "secret1")

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/operations", alice, `{"who":"alice"}`).Code)
	}
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/operations", bob, `{"who":"bob"}`).Code)

	for token, want := range map[string]int{alice: 3, bob: 1} {
		rec := app.do(t, http.MethodGet, "/operations", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list operations.ListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, want, list.Count)
		for _, op := range list.Operations {
			assert.Equal(t, list.Operations[0].OwnerID, op.OwnerID)
		}
	}
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	for _, path := range []string{"/operations", "/operations/stream", "/profile", "/user/profile", "/admin/users", "/api/profile"} {
		rec := app.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/operations", "garbage", "").Code)
}

func TestRouter_DeletedUserTokenIsRejected(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/register", "", `{"username":"ghost","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	token := app.login(t, "ghost", "secret1")

	app.store.Delete(user.ID)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/operations", token, "").Code)
}

func TestRouter_AdminListing(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret1"}`).Code)
	_, err := app.authSvc.CreateAdmin(context.Background(), "root", "rootpass")
	require.NoError(t, err)

	standard := app.login(t, "alice", "secret1")
	admin := app.login(t, "root", "rootpass")

	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/admin/users", standard, "").Code)

	rec := app.do(t, http.MethodGet, "/admin/users", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp users.UserListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestRouter_Profile(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret1"}`).Code)
	token := app.login(t, "alice", "secret1")
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/operations", token, `{"operation_type":"deposit"}`).Code)

	for _, path := range []string{"/profile", "/user/profile", "/api/user/profile"} {
		rec := app.do(t, http.MethodGet, path, token, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		var profile users.ProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, "alice", profile.User.Username)
		assert.Equal(t, int64(1), profile.Stats.Count)
	}
}

func TestRouter_StatusAndFallbacks(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	for _, path := range []string{"/status", "/api/status"} {
		rec := app.do(t, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var status StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "active", status.Status)
		assert.Equal(t, Version, status.Version)
		assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
	}

	rec := app.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodDelete, "/status", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}

func TestRecoverer(t *testing.T) {
	t.Parallel()
	h := recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
