package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Resolver maps the authenticated caller's external key to a stable owner id.
// An unknown key resolves to uuid.Nil, which downstream components treat as
// "serve the empty result" rather than an error.
type Resolver interface {
	Resolve(ctx context.Context, externalKey string) (uuid.UUID, error)
}

type postgresResolver struct {
	pool *pgxpool.Pool
}

func NewResolver(pool *pgxpool.Pool) Resolver {
	return &postgresResolver{pool: pool}
}

func (r *postgresResolver) Resolve(ctx context.Context, externalKey string) (uuid.UUID, error) {
	if externalKey == "" {
		return uuid.Nil, nil
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM owners WHERE external_key = $1`,
		externalKey,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("resolving owner %q: %w", externalKey, err)
	}
	return id, nil
}
