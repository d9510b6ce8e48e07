package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines memory-record persistence. All read methods return
// only active records: expiry is evaluated against the current date at
// query time, never pre-filtered at write time.
type Repository interface {
	Insert(ctx context.Context, rec *Record) error
	// RecentActiveByKind returns up to limit active records of one kind,
	// newest first by creation time.
	RecentActiveByKind(ctx context.Context, ownerID uuid.UUID, kind Kind, limit int) ([]Record, error)
	// RecentActiveSummaries returns up to limit active DAILY_SUMMARY
	// records, newest first by reference date.
	RecentActiveSummaries(ctx context.Context, ownerID uuid.UUID, limit int) ([]Record, error)
	// ActiveByOwner returns up to limit active records of any kind,
	// newest first by creation time.
	ActiveByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Record, error)
	// HasSummaryForDate reports whether a DAILY_SUMMARY exists for the
	// given reference date, expired or not.
	HasSummaryForDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error)
}

const selectColumns = `id, owner_id, kind, content, reference_date, importance_score, expires_at, created_at`

// activeFilter keeps expiry evaluation in the database, against its
// current date.
const activeFilter = `(expires_at IS NULL OR expires_at >= CURRENT_DATE)`

// PostgresRepository implements Repository on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new memory-record repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO coach_memories (id, owner_id, kind, content, reference_date, importance_score, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.OwnerID, string(rec.Kind), rec.Content, rec.ReferenceDate, rec.ImportanceScore, rec.ExpiresAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting memory record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecentActiveByKind(ctx context.Context, ownerID uuid.UUID, kind Kind, limit int) ([]Record, error) {
	return r.query(ctx,
		`SELECT `+selectColumns+`
		 FROM coach_memories
		 WHERE owner_id = $1 AND kind = $2 AND `+activeFilter+`
		 ORDER BY created_at DESC
		 LIMIT $3`,
		ownerID, string(kind), limit,
	)
}

func (r *PostgresRepository) RecentActiveSummaries(ctx context.Context, ownerID uuid.UUID, limit int) ([]Record, error) {
	return r.query(ctx,
		`SELECT `+selectColumns+`
		 FROM coach_memories
		 WHERE owner_id = $1 AND kind = $2 AND `+activeFilter+`
		 ORDER BY reference_date DESC NULLS LAST
		 LIMIT $3`,
		ownerID, string(KindDailySummary), limit,
	)
}

func (r *PostgresRepository) ActiveByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Record, error) {
	return r.query(ctx,
		`SELECT `+selectColumns+`
		 FROM coach_memories
		 WHERE owner_id = $1 AND `+activeFilter+`
		 ORDER BY created_at DESC
		 LIMIT $2`,
		ownerID, limit,
	)
}

func (r *PostgresRepository) HasSummaryForDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM coach_memories
			WHERE owner_id = $1 AND kind = $2 AND reference_date = $3
		 )`,
		ownerID, string(KindDailySummary), dateOnly(date),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking summary existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memory records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var kind string
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &kind, &rec.Content,
			&rec.ReferenceDate, &rec.ImportanceScore, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory record: %w", err)
		}
		rec.Kind = Kind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}
