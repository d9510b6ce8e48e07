package memory

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a memory record.
type Kind string

const (
	KindDailySummary Kind = "DAILY_SUMMARY"
	KindUserInsight  Kind = "USER_INSIGHT"
	KindLongTermFact Kind = "LONG_TERM_FACT"
)

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDailySummary, KindUserInsight, KindLongTermFact:
		return true
	}
	return false
}

// Record is a persisted, scored, possibly-expiring memory about one owner.
// Records are append-only: created by the persistence gate, never mutated,
// removed only by the external expiry sweep or account deletion.
type Record struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	Kind            Kind       `json:"kind"`
	Content         string     `json:"content"`
	ReferenceDate   *time.Time `json:"reference_date,omitempty"`
	ImportanceScore int        `json:"importance_score"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Score returns the importance score, defaulting to 3 for legacy rows
// persisted without one.
func (r Record) Score() int {
	if r.ImportanceScore == 0 {
		return 3
	}
	return r.ImportanceScore
}

// Active reports whether the record has not expired as of the given day.
func (r Record) Active(today time.Time) bool {
	return r.ExpiresAt == nil || !r.ExpiresAt.Before(dateOnly(today))
}

// Candidate is an unpersisted (kind, text) proposal produced by extraction,
// subject to rejection before becoming a Record.
type Candidate struct {
	Kind    Kind
	Content string
}

// SaveRequest is the explicit "remember this" API payload.
type SaveRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=DAILY_SUMMARY USER_INSIGHT LONG_TERM_FACT"`
	Content string `json:"content" validate:"required,min=1"`
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
