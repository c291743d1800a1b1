package operations

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/feed"
)

// EventName is the SSE event name used for newly appended operations.
const EventName = "operation"

// RecentWindow is how far back Stats.RecentCount looks.
const RecentWindow = 7 * 24 * time.Hour

// Publisher receives every appended operation. *feed.Broadcaster satisfies it.
type Publisher interface {
	Publish(ownerID int64, event feed.Event) int
}

// OperationService validates payloads, writes them to the ledger and
// announces them on the live feed.
type OperationService struct {
	ledger    Ledger
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOperationService creates an OperationService. publisher may be nil.
func NewOperationService(ledger Ledger, publisher Publisher, logger *zap.Logger) *OperationService {
	return &OperationService{
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create appends payload to ownerID's ledger. The payload must be a JSON value other than null.
func (s *OperationService) Create(ctx context.Context, ownerID int64, payload json.RawMessage) (*Operation, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, apperror.NewValidationError("operation payload is required", nil)
	}
	if !json.Valid(payload) {
		return nil, apperror.NewValidationError("operation payload must be valid JSON", nil)
	}

	op, err := s.ledger.Append(ctx, ownerID, operationType(payload), payload)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create operation", err)
	}

	s.logger.Info("operation created",
		zap.Int64("operation_id", op.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("operation_type", op.OperationType))

	s.publish(op)
	return op, nil
}

// List returns ownerID's operations in creation order.
func (s *OperationService) List(ctx context.Context, ownerID int64, limit int) (*ListResponse, error) {
	if limit < 0 {
		return nil, apperror.NewValidationError("limit must not be negative", nil)
	}
	ops, err := s.ledger.ListForOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list operations", err)
	}
	return &ListResponse{Operations: ops, Count: len(ops)}, nil
}

// Stats summarizes ownerID's ledger with RecentCount over the last RecentWindow.
func (s *OperationService) Stats(ctx context.Context, ownerID int64) (*Stats, error) {
	stats, err := s.ledger.StatsForOwner(ctx, ownerID, s.now().Add(-RecentWindow))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load operation stats", err)
	}
	return stats, nil
}

func (s *OperationService) publish(op *Operation) {
	if s.publisher == nil {
		return
	}
	event, err := feed.NewEvent(strconv.FormatInt(op.ID, 10), EventName, op)
	if err != nil {
		s.logger.Error("failed to encode feed event", zap.Int64("operation_id", op.ID), zap.Error(err))
		return
	}
	s.publisher.Publish(op.OwnerID, event)
}

// operationType returns the payload's "operation_type" member when the payload
// is an object and the member is a string.
func operationType(payload json.RawMessage) string {
	var probe struct {
		OperationType any `json:"operation_type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	t, _ := probe.OperationType.(string)
	return t
}
