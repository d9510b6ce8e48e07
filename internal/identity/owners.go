package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnerLister enumerates all registered owner IDs.
type OwnerLister struct {
	pool *pgxpool.Pool
}

func NewOwnerLister(pool *pgxpool.Pool) *OwnerLister {
	return &OwnerLister{pool: pool}
}

func (l *OwnerLister) ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := l.pool.Query(ctx, `SELECT id FROM owners ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning owner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
