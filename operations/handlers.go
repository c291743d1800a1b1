package operations

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/feed"
)

// Subscriber opens and closes live feed subscriptions. *feed.Broadcaster satisfies it.
type Subscriber interface {
	Subscribe(ownerID int64) (string, <-chan feed.Event)
	Unsubscribe(clientID string)
}

// Handlers exposes OperationService over HTTP. Every route expects the
// principal attached by auth.Middleware.
type Handlers struct {
	service   *OperationService
	feed      Subscriber
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewHandlers creates Handlers. heartbeat is the keep-alive interval of the stream.
func NewHandlers(service *OperationService, subscriber Subscriber, heartbeat time.Duration, logger *zap.Logger) *Handlers {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Handlers{service: service, feed: subscriber, heartbeat: heartbeat, logger: logger}
}

func (h *Handlers) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, h.logger, apperror.NewAuthError("authentication required", nil))
		return nil, false
	}
	return p, true
}

// HandleCreate godoc
// @Summary Create an operation
// @Description Stores an arbitrary JSON payload in the caller's ledger.
// @Tags Operations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Operation payload"
// @Success 201 {object} operations.Operation
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Missing or malformed payload"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /operations [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.principal(w, r)
		if !ok {
			return
		}

		var payload json.RawMessage
		if err := apperror.DecodeJSON(w, r, &payload); err != nil {
			apperror.WriteError(w, r, h.logger, err)
			return
		}

		op, err := h.service.Create(r.Context(), p.User.ID, payload)
		if err != nil {
			apperror.WriteError(w, r, h.logger, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, op)
	}
}

// HandleList godoc
// @Summary List operations
// @Description Lists the caller's operations, oldest first.
// @Tags Operations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of operations to return"
// @Success 200 {object} operations.ListResponse
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid limit"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /operations [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.principal(w, r)
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				apperror.WriteError(w, r, h.logger, apperror.NewValidationError("limit must be an integer", err))
				return
			}
			limit = n
		}

		resp, err := h.service.List(r.Context(), p.User.ID, limit)
		if err != nil {
			apperror.WriteError(w, r, h.logger, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleStream godoc
// @Summary Stream new operations
// @Description Server-Sent Events stream of the caller's operations as they are created.
// @Tags Operations
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Router /operations/stream [get]
func (h *Handlers) HandleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.principal(w, r)
		if !ok {
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			h.logger.Error("streaming unsupported", zap.Error(err))
			return
		}

		clientID, events := h.feed.Subscribe(p.User.ID)
		defer h.feed.Unsubscribe(clientID)

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
					return
				}
			case ev, open := <-events:
				if !open {
					return
				}
				if _, err := ev.WriteTo(w); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
