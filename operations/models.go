// Package operations is the per-user operation ledger: append, owner-scoped
// listing and activity statistics, plus the HTTP handlers in front of them.
package operations

import (
	"encoding/json"
	"time"
)

// StatusPending is the status every appended operation starts in.
const StatusPending = "pending"

// Operation is one record in a user's ledger. Payload is stored and returned
// verbatim; OperationType is lifted from the payload's "operation_type" member
// when it is a string.
type Operation struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	OperationType string          `json:"operation_type,omitempty"`
	Payload       json.RawMessage `json:"payload" swaggertype:"object"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Stats summarizes a user's ledger. The timestamps are nil when Count is 0.
type Stats struct {
	Count          int64      `json:"count"`
	FirstCreatedAt *time.Time `json:"first_created_at"`
	LastCreatedAt  *time.Time `json:"last_created_at"`
	RecentCount    int64      `json:"recent_count"`
}

// ListResponse is the body of GET /operations.
type ListResponse struct {
	Operations []Operation `json:"operations"`
	Count      int         `json:"count"`
}
