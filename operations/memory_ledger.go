package operations

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryLedger is an in-process Ledger for tests and database-less runs.
// Operations are kept in insertion order, which is also created_at order.
type MemoryLedger struct {
	mu     sync.RWMutex
	nextID int64
	ops    []Operation
	now    func() time.Time
}

// NewMemoryLedger returns an empty MemoryLedger using clock, or time.Now when clock is nil.
func NewMemoryLedger(clock func() time.Time) *MemoryLedger {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryLedger{now: clock}
}

func (l *MemoryLedger) Append(_ context.Context, ownerID int64, operationType string, payload json.RawMessage) (*Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	op := Operation{
		ID:            l.nextID,
		OwnerID:       ownerID,
		OperationType: operationType,
		Payload:       append(json.RawMessage(nil), payload...),
		Status:        StatusPending,
		CreatedAt:     l.now().UTC(),
	}
	l.ops = append(l.ops, op)
	return &op, nil
}

func (l *MemoryLedger) ListForOwner(_ context.Context, ownerID int64, limit int) ([]Operation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Operation, 0)
	for _, op := range l.ops {
		if op.OwnerID != ownerID {
			continue
		}
		out = append(out, op)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *MemoryLedger) StatsForOwner(_ context.Context, ownerID int64, since time.Time) (*Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s Stats
	for _, op := range l.ops {
		if op.OwnerID != ownerID {
			continue
		}
		created := op.CreatedAt
		if s.Count == 0 {
			s.FirstCreatedAt = &created
		}
		s.LastCreatedAt = &created
		s.Count++
		if !created.Before(since) {
			s.RecentCount++
		}
	}
	return &s, nil
}
