package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	// perKindFetchWindow is how many recent records per kind feed the
	// profile context before limits apply.
	perKindFetchWindow = 10

	// relevanceFetchWindow is how many recent records of any kind feed
	// the relevance ranking.
	relevanceFetchWindow = 30

	maxSectionLimit = 10
	maxRelevantLimit = 12

	priorityScoreThreshold = 4
	prioritySectionSize    = 3
	relevantSummaryCount   = 3
)

const (
	msgUnknownOwner = "No saved long-term memory found for this user."
	msgEmptyMemory  = "No saved long-term memory yet. Build memory from this conversation."
)

// Composer renders stored records into the prompt blocks the coach
// consumes. Output is plain text with fixed section headings so the
// downstream prompt stays stable across releases.
type Composer struct {
	repo Repository
}

func NewComposer(repo Repository) *Composer {
	return &Composer{repo: repo}
}

// ProfileContext renders the standing memory profile: priority
// preferences, stable facts, behavioral insights and recent day summaries.
// Section limits are clamped to 1..10.
func (c *Composer) ProfileContext(ctx context.Context, ownerID uuid.UUID, factLimit, insightLimit, summaryLimit int) (string, error) {
	if ownerID == uuid.Nil {
		return msgUnknownOwner, nil
	}

	factLimit = clamp(factLimit, 1, maxSectionLimit)
	insightLimit = clamp(insightLimit, 1, maxSectionLimit)
	summaryLimit = clamp(summaryLimit, 1, maxSectionLimit)

	facts, err := c.repo.RecentActiveByKind(ctx, ownerID, KindLongTermFact, perKindFetchWindow)
	if err != nil {
		return "", fmt.Errorf("loading facts: %w", err)
	}
	insights, err := c.repo.RecentActiveByKind(ctx, ownerID, KindUserInsight, perKindFetchWindow)
	if err != nil {
		return "", fmt.Errorf("loading insights: %w", err)
	}
	summaries, err := c.repo.RecentActiveSummaries(ctx, ownerID, perKindFetchWindow)
	if err != nil {
		return "", fmt.Errorf("loading summaries: %w", err)
	}

	facts = topByPriority(facts, factLimit)
	insights = topByPriority(insights, insightLimit)
	if len(summaries) > summaryLimit {
		summaries = summaries[:summaryLimit]
	}
	// Summaries read best oldest first.
	sort.SliceStable(summaries, func(i, j int) bool {
		return refDateLess(summaries[i], summaries[j])
	})

	if len(facts) == 0 && len(insights) == 0 && len(summaries) == 0 {
		return msgEmptyMemory, nil
	}

	var sb strings.Builder
	sb.WriteString("LONG-TERM USER MEMORY:\n")

	priority := priorityRecords(facts, insights)
	if len(priority) > 0 {
		sb.WriteString("Priority coaching preferences:\n")
		for _, rec := range priority {
			sb.WriteString("- " + rec.Content + "\n")
		}
	}
	if len(facts) > 0 {
		sb.WriteString("Stable facts:\n")
		writeScoredLines(&sb, facts)
	}
	if len(insights) > 0 {
		sb.WriteString("Behavioral insights:\n")
		writeScoredLines(&sb, insights)
	}
	if len(summaries) > 0 {
		sb.WriteString("Recent day summaries:\n")
		writeDatedLines(&sb, summaries)
	}
	return strings.TrimSpace(sb.String()), nil
}

// RelevantContext ranks the 30 most recent active records against the
// query and renders the winners plus the freshest few day summaries. The
// limit is clamped to 1..12.
func (c *Composer) RelevantContext(ctx context.Context, ownerID uuid.UUID, query string, limit int) (string, error) {
	if ownerID == uuid.Nil {
		return msgUnknownOwner, nil
	}

	active, err := c.repo.ActiveByOwner(ctx, ownerID, relevanceFetchWindow)
	if err != nil {
		return "", fmt.Errorf("loading active records: %w", err)
	}
	if len(active) == 0 {
		return msgEmptyMemory, nil
	}

	limit = clamp(limit, 1, maxRelevantLimit)
	tokens := queryTokens(query)

	var profile, summaries []Record
	for _, rec := range active {
		switch rec.Kind {
		case KindDailySummary:
			summaries = append(summaries, rec)
		default:
			profile = append(profile, rec)
		}
	}

	sort.SliceStable(profile, func(i, j int) bool {
		si, sj := relevanceScore(profile[i], tokens), relevanceScore(profile[j], tokens)
		if si != sj {
			return si > sj
		}
		return profile[i].CreatedAt.After(profile[j].CreatedAt)
	})
	if len(profile) > limit {
		profile = profile[:limit]
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return refDateGreater(summaries[i], summaries[j])
	})
	if len(summaries) > relevantSummaryCount {
		summaries = summaries[:relevantSummaryCount]
	}

	if len(profile) == 0 && len(summaries) == 0 {
		return msgEmptyMemory, nil
	}

	var sb strings.Builder
	sb.WriteString("LONG-TERM USER MEMORY (retrieved for current turn):\n")
	if len(profile) > 0 {
		sb.WriteString("Most relevant profile signals:\n")
		writeScoredLines(&sb, profile)
	}
	if len(summaries) > 0 {
		sb.WriteString("Recent trajectory snapshots:\n")
		writeDatedLines(&sb, summaries)
	}
	return strings.TrimSpace(sb.String()), nil
}

// relevanceScore weighs importance double, favors facts over insights and
// rewards whole-word query token hits up to a fixed ceiling.
func relevanceScore(rec Record, tokens []string) int {
	score := rec.Score() * 2

	switch rec.Kind {
	case KindLongTermFact:
		score += 2
	case KindUserInsight:
		score++
	}

	if len(tokens) > 0 && rec.Content != "" {
		normalized := " " + normalizeForDedup(rec.Content) + " "
		hits := 0
		for _, token := range tokens {
			if strings.Contains(normalized, " "+token+" ") {
				hits++
			}
		}
		score += min(hits*2, 8)
	}
	return score
}

// topByPriority orders by importance then recency and truncates.
func topByPriority(records []Record, limit int) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score() != sorted[j].Score() {
			return sorted[i].Score() > sorted[j].Score()
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// priorityRecords picks the strongest few signals across facts and
// insights for the headline section.
func priorityRecords(facts, insights []Record) []Record {
	var merged []Record
	for _, rec := range append(append([]Record{}, facts...), insights...) {
		if rec.Score() >= priorityScoreThreshold {
			merged = append(merged, rec)
		}
	}
	return topByPriority(merged, prioritySectionSize)
}

func writeScoredLines(sb *strings.Builder, records []Record) {
	for _, rec := range records {
		fmt.Fprintf(sb, "- %s (P%d)\n", rec.Content, rec.Score())
	}
}

func writeDatedLines(sb *strings.Builder, records []Record) {
	for _, rec := range records {
		date := "unknown-date"
		if rec.ReferenceDate != nil {
			date = rec.ReferenceDate.Format("2006-01-02")
		}
		fmt.Fprintf(sb, "- [%s] %s\n", date, rec.Content)
	}
}

// refDateLess orders records by reference date ascending with nil last.
func refDateLess(a, b Record) bool {
	switch {
	case a.ReferenceDate == nil:
		return false
	case b.ReferenceDate == nil:
		return true
	default:
		return a.ReferenceDate.Before(*b.ReferenceDate)
	}
}

// refDateGreater orders records by reference date descending, still with
// nil last.
func refDateGreater(a, b Record) bool {
	switch {
	case a.ReferenceDate == nil:
		return false
	case b.ReferenceDate == nil:
		return true
	default:
		return a.ReferenceDate.After(*b.ReferenceDate)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
