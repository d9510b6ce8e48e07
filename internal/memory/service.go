package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/habitloop/coachmem/internal/metrics"
)

// Service is the entry point for everything memory: ingesting
// conversation signals, explicit saves, context composition and the
// per-turn hit snapshot.
type Service struct {
	extractor *Extractor
	gate      *Gate
	composer  *Composer
	tracker   *HitTracker
	repo      Repository
}

func NewService(extractor *Extractor, gate *Gate, composer *Composer, tracker *HitTracker, repo Repository) *Service {
	return &Service{
		extractor: extractor,
		gate:      gate,
		composer:  composer,
		tracker:   tracker,
		repo:      repo,
	}
}

// Ingest extracts durable signals from recent user utterances and
// persists the survivors. It returns how many records were saved.
func (s *Service) Ingest(ctx context.Context, ownerID uuid.UUID, userMessages []string) (int, error) {
	if ownerID == uuid.Nil || len(userMessages) == 0 {
		return 0, nil
	}

	candidates := s.extractor.Extract(ctx, userMessages)
	if len(candidates) == 0 {
		return 0, nil
	}
	return s.gate.Commit(ctx, ownerID, candidates)
}

// Save persists a single caller-provided memory through the same dedup
// and scoring pipeline extraction uses.
func (s *Service) Save(ctx context.Context, ownerID uuid.UUID, kind Kind, content string) (bool, error) {
	return s.gate.Save(ctx, ownerID, kind, content)
}

// ProfileContext renders the standing memory profile for prompt
// injection.
func (s *Service) ProfileContext(ctx context.Context, ownerID uuid.UUID, factLimit, insightLimit, summaryLimit int) (string, error) {
	out, err := s.composer.ProfileContext(ctx, ownerID, factLimit, insightLimit, summaryLimit)
	if err != nil {
		return "", err
	}
	metrics.ContextRetrievalsTotal.WithLabelValues("profile").Inc()
	return out, nil
}

// RelevantContext renders the query-ranked context and, as a side effect,
// refreshes the owner's hit snapshot with the lines that surfaced.
func (s *Service) RelevantContext(ctx context.Context, ownerID uuid.UUID, query string, limit int) (string, error) {
	out, err := s.composer.RelevantContext(ctx, ownerID, query, limit)
	if err != nil {
		return "", err
	}
	s.tracker.Record(ownerID, extractHits(out))
	metrics.ContextRetrievalsTotal.WithLabelValues("relevant").Inc()
	return out, nil
}

// LatestHits reports which memory lines backed the owner's most recent
// retrieval, if the snapshot is still fresh.
func (s *Service) LatestHits(ownerID uuid.UUID) HitSnapshot {
	return s.tracker.Latest(ownerID)
}

// Recent lists the owner's most recent active records.
func (s *Service) Recent(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}
	return s.repo.ActiveByOwner(ctx, ownerID, relevanceFetchWindow)
}
