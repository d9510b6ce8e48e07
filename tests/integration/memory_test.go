//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/coachmem/internal/identity"
	"github.com/habitloop/coachmem/internal/memory"
)

func date(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func TestRepository_InsertAndQuery(t *testing.T) {
	pool := SetupPostgres(t)
	repo := memory.NewPostgresRepository(pool)
	ctx := context.Background()
	owner := CreateOwner(t, pool, "it-user@example.com")

	now := time.Now()
	fact := memory.Record{
		OwnerID:         owner,
		Kind:            memory.KindLongTermFact,
		Content:         "I bike to the office daily.",
		ReferenceDate:   date(now),
		ImportanceScore: 4,
		CreatedAt:       now,
	}
	require.NoError(t, repo.Insert(ctx, &fact))
	assert.NotEqual(t, uuid.Nil, fact.ID)

	expired := now.AddDate(0, 0, -1)
	stale := memory.Record{
		OwnerID:         owner,
		Kind:            memory.KindUserInsight,
		Content:         "An insight that has already lapsed.",
		ReferenceDate:   date(now.AddDate(0, 0, -100)),
		ImportanceScore: 3,
		ExpiresAt:       date(expired),
		CreatedAt:       now.AddDate(0, 0, -100),
	}
	require.NoError(t, repo.Insert(ctx, &stale))

	facts, err := repo.RecentActiveByKind(ctx, owner, memory.KindLongTermFact, 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "I bike to the office daily.", facts[0].Content)

	// The expired insight is filtered out of every read path.
	insights, err := repo.RecentActiveByKind(ctx, owner, memory.KindUserInsight, 10)
	require.NoError(t, err)
	assert.Empty(t, insights)

	all, err := repo.ActiveByOwner(ctx, owner, 30)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_SummariesOrderedByReferenceDate(t *testing.T) {
	pool := SetupPostgres(t)
	repo := memory.NewPostgresRepository(pool)
	ctx := context.Background()
	owner := CreateOwner(t, pool, "summaries@example.com")

	now := time.Now()
	for i := 1; i <= 3; i++ {
		rec := memory.Record{
			OwnerID:         owner,
			Kind:            memory.KindDailySummary,
			Content:         "summary",
			ReferenceDate:   date(now.AddDate(0, 0, -i)),
			ImportanceScore: 2,
			CreatedAt:       now,
		}
		require.NoError(t, repo.Insert(ctx, &rec))
	}

	summaries, err := repo.RecentActiveSummaries(ctx, owner, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].ReferenceDate.After(*summaries[1].ReferenceDate))
}

func TestRepository_HasSummaryForDate(t *testing.T) {
	pool := SetupPostgres(t)
	repo := memory.NewPostgresRepository(pool)
	ctx := context.Background()
	owner := CreateOwner(t, pool, "hasdate@example.com")

	day := time.Now().AddDate(0, 0, -1)
	exists, err := repo.HasSummaryForDate(ctx, owner, day)
	require.NoError(t, err)
	assert.False(t, exists)

	rec := memory.Record{
		OwnerID:         owner,
		Kind:            memory.KindDailySummary,
		Content:         "yesterday in brief",
		ReferenceDate:   date(day),
		ImportanceScore: 2,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.Insert(ctx, &rec))

	exists, err = repo.HasSummaryForDate(ctx, owner, day)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIdentity_ResolverAndOwnerLister(t *testing.T) {
	pool := SetupPostgres(t)
	ctx := context.Background()

	owner := CreateOwner(t, pool, "resolve-me@example.com")

	resolver := identity.NewResolver(pool)
	resolved, err := resolver.Resolve(ctx, "resolve-me@example.com")
	require.NoError(t, err)
	assert.Equal(t, owner, resolved)

	// Unknown keys resolve to the nil id without error.
	resolved, err = resolver.Resolve(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, resolved)

	ids, err := identity.NewOwnerLister(pool).ListOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, owner)
}

func TestEndToEnd_GateAndComposer(t *testing.T) {
	pool := SetupPostgres(t)
	repo := memory.NewPostgresRepository(pool)
	ctx := context.Background()
	owner := CreateOwner(t, pool, "e2e@example.com")

	gate := memory.NewGate(repo)
	saved, err := gate.Save(ctx, owner, memory.KindLongTermFact, "I always train before my morning shift.")
	require.NoError(t, err)
	require.True(t, saved)

	// Repeat save is a near-duplicate.
	saved, err = gate.Save(ctx, owner, memory.KindLongTermFact, "I always train before my morning shift!")
	require.NoError(t, err)
	assert.False(t, saved)

	out, err := memory.NewComposer(repo).ProfileContext(ctx, owner, 6, 8, 5)
	require.NoError(t, err)
	assert.Contains(t, out, "LONG-TERM USER MEMORY:")
	assert.Contains(t, out, "I always train before my morning shift. (P5)")
}
