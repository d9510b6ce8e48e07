package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/coachmem/internal/metrics"
)

const (
	// maxSavesPerTurn bounds how many records one extraction pass may
	// persist, regardless of how many candidates survived dedup.
	maxSavesPerTurn = 3

	// minCandidateLen drops fragments too short to carry a durable signal.
	minCandidateLen = 8

	// nearDupWindow is how many recent same-kind records a new candidate
	// is compared against.
	nearDupWindow = 20

	baseImportance = 3
	minImportance  = 1
	maxImportance  = 5

	summaryRetentionDays      = 35
	insightRetentionDays      = 90
	highInsightRetentionDays  = 180
	highInsightScoreThreshold = 4
)

// Gate decides which candidates become persisted records. It owns
// per-batch dedup, near-duplicate suppression against recent storage,
// importance scoring and the per-kind retention policy.
type Gate struct {
	repo Repository
}

func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// Commit persists up to maxSavesPerTurn candidates for one owner and
// returns how many were saved. Candidates duplicated within the batch are
// collapsed before any storage round-trip. A storage failure mid-batch
// returns the partial count alongside the error.
func (g *Gate) Commit(ctx context.Context, ownerID uuid.UUID, candidates []Candidate) (int, error) {
	if ownerID == uuid.Nil || len(candidates) == 0 {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(candidates))
	saved := 0
	for _, cand := range candidates {
		if saved >= maxSavesPerTurn {
			break
		}

		key := string(cand.Kind) + "|" + normalizeForDedup(cand.Content)
		if _, dup := seen[key]; dup {
			metrics.CandidatesRejectedTotal.WithLabelValues("batch_duplicate").Inc()
			continue
		}
		seen[key] = struct{}{}

		ok, err := g.Save(ctx, ownerID, cand.Kind, cand.Content)
		if err != nil {
			return saved, err
		}
		if ok {
			saved++
		}
	}
	return saved, nil
}

// Save persists a single candidate unless it is too short or a
// near-duplicate of a recent same-kind record. It returns whether a record
// was written.
func (g *Gate) Save(ctx context.Context, ownerID uuid.UUID, kind Kind, content string) (bool, error) {
	trimmed := strings.TrimSpace(content)
	if ownerID == uuid.Nil || !kind.Valid() {
		return false, nil
	}
	// Length is gated on the normalized form so punctuation and casing
	// noise cannot carry a fragment past the minimum.
	normalized := normalizeForDedup(trimmed)
	if len([]rune(normalized)) < minCandidateLen {
		metrics.CandidatesRejectedTotal.WithLabelValues("too_short").Inc()
		return false, nil
	}

	recent, err := g.repo.RecentActiveByKind(ctx, ownerID, kind, nearDupWindow)
	if err != nil {
		return false, fmt.Errorf("loading recent records: %w", err)
	}
	for _, rec := range recent {
		if isNearDuplicate(normalized, normalizeForDedup(rec.Content)) {
			metrics.CandidatesRejectedTotal.WithLabelValues("near_duplicate").Inc()
			return false, nil
		}
	}

	now := time.Now()
	today := dateOnly(now)
	score := importanceScore(kind, trimmed)

	rec := Record{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Kind:            kind,
		Content:         trimmed,
		ReferenceDate:   &today,
		ImportanceScore: score,
		ExpiresAt:       expiryFor(kind, score, today),
		CreatedAt:       now,
	}
	if err := g.repo.Insert(ctx, &rec); err != nil {
		return false, fmt.Errorf("inserting record: %w", err)
	}
	metrics.RecordsSavedTotal.WithLabelValues(string(kind)).Inc()
	return true, nil
}

// importanceScore starts every candidate at the base score and nudges it by
// kind, durability wording, volatility wording and length, clamped to the
// 1..5 band.
func importanceScore(kind Kind, content string) int {
	score := baseImportance
	lower := " " + strings.ToLower(content) + " "

	if kind == KindLongTermFact {
		score++
	}
	if containsAny(lower, durabilityHints) {
		score++
	}
	if containsAny(lower, volatilityHints) {
		score--
	}
	if len(content) > 180 {
		score--
	}

	if score < minImportance {
		score = minImportance
	}
	if score > maxImportance {
		score = maxImportance
	}
	return score
}

// expiryFor applies the retention policy: facts never expire, summaries
// live 35 days, insights live 90 days or 180 when scored high.
func expiryFor(kind Kind, score int, today time.Time) *time.Time {
	switch kind {
	case KindLongTermFact:
		return nil
	case KindDailySummary:
		t := today.AddDate(0, 0, summaryRetentionDays)
		return &t
	default:
		days := insightRetentionDays
		if score >= highInsightScoreThreshold {
			days = highInsightRetentionDays
		}
		t := today.AddDate(0, 0, days)
		return &t
	}
}
