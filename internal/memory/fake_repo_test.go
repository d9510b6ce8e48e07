package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// fakeRepository is an in-memory Repository for unit tests. It mirrors the
// SQL ordering and active filtering of the real implementation.
type fakeRepository struct {
	records   []Record
	insertErr error
}

func (f *fakeRepository) Insert(_ context.Context, rec *Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeRepository) RecentActiveByKind(_ context.Context, ownerID uuid.UUID, kind Kind, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Kind == kind && rec.Active(time.Now()) {
			out = append(out, rec)
		}
	}
	sortByCreatedDesc(out)
	return truncate(out, limit), nil
}

func (f *fakeRepository) RecentActiveSummaries(_ context.Context, ownerID uuid.UUID, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Kind == KindDailySummary && rec.Active(time.Now()) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return refDateLess(out[j], out[i])
	})
	return truncate(out, limit), nil
}

func (f *fakeRepository) ActiveByOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Active(time.Now()) {
			out = append(out, rec)
		}
	}
	sortByCreatedDesc(out)
	return truncate(out, limit), nil
}

func (f *fakeRepository) HasSummaryForDate(_ context.Context, ownerID uuid.UUID, date time.Time) (bool, error) {
	day := dateOnly(date)
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Kind == KindDailySummary &&
			rec.ReferenceDate != nil && rec.ReferenceDate.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func sortByCreatedDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func truncate(records []Record, limit int) []Record {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
