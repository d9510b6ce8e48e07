package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/coachmem/internal/completion"
	"github.com/habitloop/coachmem/internal/conversation"
	"github.com/habitloop/coachmem/internal/memory"
	"github.com/habitloop/coachmem/internal/metrics"
)

const (
	summaryImportance    = 2
	summaryRetentionDays = 35
)

const summarySystemPrompt = "Summarize user activity clearly and compassionately."

// OwnerLister enumerates every owner eligible for a daily summary run.
type OwnerLister interface {
	ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Summarizer condenses each owner's previous day of conversation into a
// single day-summary record. Runs are idempotent: an existing summary for
// the date short-circuits.
type Summarizer struct {
	repo   memory.Repository
	buffer *conversation.Buffer
	client completion.Client
	owners OwnerLister
}

func New(repo memory.Repository, buffer *conversation.Buffer, client completion.Client, owners OwnerLister) *Summarizer {
	return &Summarizer{
		repo:   repo,
		buffer: buffer,
		client: client,
		owners: owners,
	}
}

// GenerateForOwner writes a day summary for one owner and date. It
// reports whether a record was created.
func (s *Summarizer) GenerateForOwner(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error) {
	if s.client == nil {
		return false, nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	exists, err := s.repo.HasSummaryForDate(ctx, ownerID, day)
	if err != nil {
		return false, fmt.Errorf("checking existing summary: %w", err)
	}
	if exists {
		return false, nil
	}

	entries, err := s.buffer.EntriesBetween(ctx, ownerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, fmt.Errorf("loading conversation entries: %w", err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	prompt := buildSummaryPrompt(day, entries)
	summary, err := s.client.Complete(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return false, fmt.Errorf("generating summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return false, nil
	}

	expiresAt := day.AddDate(0, 0, summaryRetentionDays)
	rec := memory.Record{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Kind:            memory.KindDailySummary,
		Content:         summary,
		ReferenceDate:   &day,
		ImportanceScore: summaryImportance,
		ExpiresAt:       &expiresAt,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.Insert(ctx, &rec); err != nil {
		return false, fmt.Errorf("inserting summary: %w", err)
	}
	metrics.DailySummariesTotal.Inc()
	return true, nil
}

// RunOnce summarizes yesterday for every known owner. Per-owner failures
// are logged and do not stop the run.
func (s *Summarizer) RunOnce(ctx context.Context) {
	owners, err := s.owners.ListOwnerIDs(ctx)
	if err != nil {
		slog.Error("summarizer: listing owners", "error", err)
		return
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	created := 0
	for _, ownerID := range owners {
		ok, err := s.GenerateForOwner(ctx, ownerID, yesterday)
		if err != nil {
			slog.Error("summarizer: generating summary", "error", err, "owner", ownerID)
			continue
		}
		if ok {
			created++
		}
	}
	slog.Info("summarizer run finished", "owners", len(owners), "created", created)
}

// Run blocks and fires RunOnce once a day at the configured hour until
// ctx is cancelled.
func (s *Summarizer) Run(ctx context.Context, hour int) {
	for {
		wait := untilNextHour(time.Now().UTC(), hour)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

func untilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func buildSummaryPrompt(day time.Time, entries []conversation.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please create a concise daily summary (max 50 words) for the user's activity on %s. ", day.Format("2006-01-02"))
	sb.WriteString("Include key achievements, mood patterns, and any important topics discussed in chat. ")
	sb.WriteString("This summary will be used as long-term memory for future coaching. ")
	sb.WriteString("\n\nContext:\nChat History:\n")
	for _, entry := range entries {
		sb.WriteString(strings.ToUpper(entry.Role) + ": " + entry.Content + "\n")
	}
	return sb.String()
}
