package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAppError_StatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest},
		{"bad request", NewBadRequestError("bad", nil), http.StatusBadRequest},
		{"auth", NewAuthError("who", nil), http.StatusUnauthorized},
		{"forbidden", NewUnauthorizedError("no", nil), http.StatusForbidden},
		{"not found", NewNotFoundError("gone", nil), http.StatusNotFound},
		{"conflict", NewConflictError("dup", nil), http.StatusConflict},
		{"database", NewDatabaseError("db", nil), http.StatusInternalServerError},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"unknown", NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.StatusCode())
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewDatabaseError("failed to create user", cause)

	assert.Equal(t, "failed to create user: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorResponse{Error: "failed to create user"}, err.ToResponse())
}

func TestFromError_FindsWrappedAppError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("handler: %w", NewConflictError("username already exists", nil))

	got := FromError(wrapped)
	assert.Equal(t, ConflictError, got.Type)
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsNotFound(wrapped))
}

func TestFromError_PlainErrorBecomesInternal(t *testing.T) {
	t.Parallel()

	got := FromError(errors.New("pq: relation does not exist"))
	assert.Equal(t, InternalError, got.Type)
	assert.Equal(t, "internal server error", got.Message)
}

func TestWriteError_HidesDetailsAndLogsServerErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	req := httptest.NewRequest(http.MethodGet, "/operations", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, logger, NewDatabaseError("failed to list operations", errors.New("secret dsn detail")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to list operations", body.Error)
	assert.NotContains(t, rec.Body.String(), "secret dsn detail")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/operations", logs.All()[0].ContextMap()["path"])
}

func TestWriteError_ClientErrorsAreNotLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, zap.New(core), NewAuthError("invalid credentials", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, logs.Len())
}
