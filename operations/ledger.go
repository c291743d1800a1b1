package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/user/opledger-go/auth"
)

// Ledger is the operation store contract. Every read is scoped by owner.
type Ledger interface {
	// Append inserts one operation for ownerID and returns it with id and created_at set.
	Append(ctx context.Context, ownerID int64, operationType string, payload json.RawMessage) (*Operation, error)
	// ListForOwner returns ownerID's operations by created_at ascending, ties by id.
	// A limit <= 0 returns all of them.
	ListForOwner(ctx context.Context, ownerID int64, limit int) ([]Operation, error)
	// StatsForOwner counts ownerID's operations; RecentCount covers those created at or after since.
	StatsForOwner(ctx context.Context, ownerID int64, since time.Time) (*Stats, error)
}

// PostgresLedger keeps operations in the `operations` table.
type PostgresLedger struct {
	db auth.DBTX
}

// NewPostgresLedger creates a PostgresLedger over a pool or transaction.
func NewPostgresLedger(db auth.DBTX) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const operationColumns = `id, owner_id, operation_type, payload, status, created_at`

func (l *PostgresLedger) Append(ctx context.Context, ownerID int64, operationType string, payload json.RawMessage) (*Operation, error) {
	query := `
		INSERT INTO operations (owner_id, operation_type, payload, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + operationColumns

	op, err := scanOperation(l.db.QueryRow(ctx, query, ownerID, operationType, []byte(payload), StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to insert operation: %w", err)
	}
	return op, nil
}

func (l *PostgresLedger) ListForOwner(ctx context.Context, ownerID int64, limit int) ([]Operation, error) {
	query := `SELECT ` + operationColumns + `
		FROM operations
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	ops := make([]Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return ops, nil
}

func (l *PostgresLedger) StatsForOwner(ctx context.Context, ownerID int64, since time.Time) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       MIN(created_at),
		       MAX(created_at),
		       COUNT(*) FILTER (WHERE created_at >= $2)
		FROM operations
		WHERE owner_id = $1`

	var s Stats
	err := l.db.QueryRow(ctx, query, ownerID, since).Scan(&s.Count, &s.FirstCreatedAt, &s.LastCreatedAt, &s.RecentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation stats: %w", err)
	}
	return &s, nil
}

func scanOperation(row pgx.Row) (*Operation, error) {
	var op Operation
	var payload []byte
	if err := row.Scan(&op.ID, &op.OwnerID, &op.OperationType, &payload, &op.Status, &op.CreatedAt); err != nil {
		return nil, err
	}
	op.Payload = payload
	return &op, nil
}
