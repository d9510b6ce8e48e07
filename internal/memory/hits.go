package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxTrackedHits = 6
	snapshotTTL    = 10 * time.Minute
)

// HitSnapshot captures which memory lines were surfaced to the coach on
// the most recent turn. UpdatedAt is nil when no fresh snapshot exists.
type HitSnapshot struct {
	Hits      []string   `json:"hits"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// HitTracker keeps a short-lived per-owner snapshot of retrieved memory
// lines so the UI can show what the coach is currently drawing on. Stale
// snapshots are evicted on read.
type HitTracker struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]HitSnapshot

	now func() time.Time
}

func NewHitTracker() *HitTracker {
	return &HitTracker{
		snapshots: make(map[uuid.UUID]HitSnapshot),
		now:       time.Now,
	}
}

// Record replaces the owner's snapshot with the given hits. Blank entries
// are dropped, whitespace is collapsed, duplicates removed, and at most
// six hits are kept.
func (t *HitTracker) Record(ownerID uuid.UUID, hits []string) {
	if ownerID == uuid.Nil {
		return
	}

	normalized := normalizeHits(hits)
	updatedAt := t.now()

	t.mu.Lock()
	t.snapshots[ownerID] = HitSnapshot{Hits: normalized, UpdatedAt: &updatedAt}
	t.mu.Unlock()
}

// Latest returns the owner's snapshot, or an empty one when none exists
// or the stored snapshot has aged past its TTL.
func (t *HitTracker) Latest(ownerID uuid.UUID) HitSnapshot {
	empty := HitSnapshot{Hits: []string{}}
	if ownerID == uuid.Nil {
		return empty
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot, ok := t.snapshots[ownerID]
	if !ok {
		return empty
	}
	if snapshot.UpdatedAt == nil || snapshot.UpdatedAt.Before(t.now().Add(-snapshotTTL)) {
		delete(t.snapshots, ownerID)
		return empty
	}
	return snapshot
}

func normalizeHits(hits []string) []string {
	seen := make(map[string]struct{}, len(hits))
	normalized := make([]string, 0, len(hits))
	for _, hit := range hits {
		collapsed := strings.TrimSpace(whitespaceRe.ReplaceAllString(hit, " "))
		if collapsed == "" {
			continue
		}
		if _, dup := seen[collapsed]; dup {
			continue
		}
		seen[collapsed] = struct{}{}
		normalized = append(normalized, collapsed)
		if len(normalized) >= maxTrackedHits {
			break
		}
	}
	return normalized
}

// extractHits pulls the bullet lines out of a rendered memory context,
// stripping the trailing score annotation. Sentinel responses yield no
// hits.
func extractHits(context string) []string {
	if strings.TrimSpace(context) == "" || strings.HasPrefix(context, "No saved long-term memory") {
		return nil
	}

	var hits []string
	for _, line := range strings.Split(context, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}

		hit := strings.TrimSpace(hitScoreRe.ReplaceAllString(trimmed[2:], ""))
		if hit != "" {
			hits = append(hits, hit)
		}
		if len(hits) >= maxTrackedHits {
			break
		}
	}
	return hits
}
