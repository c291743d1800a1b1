package apperror

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// WriteJSON serializes `data` to JSON and writes it with the given `status`.
// A nil `data` writes only the status line and headers.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// Headers are already on the wire, so an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError converts any error into the standard JSON error body.
// 5xx errors are logged with their full chain; the client only gets the message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := FromError(err)

	if appErr.IsServerError() && logger != nil {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(appErr),
		)
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst. Any failure (malformed JSON,
// empty or oversized body) is reported as a BadRequestError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	return nil
}
