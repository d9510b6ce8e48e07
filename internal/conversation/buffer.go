package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Role values for buffer entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is a single message in the rolling conversation buffer.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer keeps a bounded, expiring per-owner conversation history in Redis
// lists. It feeds the async extraction unit (recent user messages) and the
// daily summarizer (one day's entries); losing it costs nothing durable.
type Buffer struct {
	client  *redis.Client
	maxMsgs int
	ttl     time.Duration
}

// NewBuffer creates a conversation buffer holding up to maxMsgs entries per
// owner, expiring ttl after the last append.
func NewBuffer(client *redis.Client, maxMsgs int, ttl time.Duration) *Buffer {
	return &Buffer{client: client, maxMsgs: maxMsgs, ttl: ttl}
}

func turnKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("turns:%s", ownerID.String())
}

// AppendTurn appends the user message and assistant reply of one turn.
func (b *Buffer) AppendTurn(ctx context.Context, ownerID uuid.UUID, userMsg, assistantMsg string) error {
	now := time.Now()
	entries := make([]Entry, 0, 2)
	if userMsg != "" {
		entries = append(entries, Entry{Role: RoleUser, Content: userMsg, Timestamp: now})
	}
	if assistantMsg != "" {
		entries = append(entries, Entry{Role: RoleAssistant, Content: assistantMsg, Timestamp: now})
	}
	if len(entries) == 0 {
		return nil
	}

	key := turnKey(ownerID)
	pipe := b.client.Pipeline()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		pipe.RPush(ctx, key, string(data))
	}
	pipe.LTrim(ctx, key, int64(-b.maxMsgs), -1)
	pipe.Expire(ctx, key, b.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// RecentUserMessages returns the last `limit` user-authored messages in
// chronological order.
func (b *Buffer) RecentUserMessages(ctx context.Context, ownerID uuid.UUID, limit int) ([]string, error) {
	entries, err := b.entries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	collected := make([]string, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(collected) < limit; i-- {
		if entries[i].Role != RoleUser || entries[i].Content == "" {
			continue
		}
		collected = append(collected, entries[i].Content)
	}

	// Reverse back to chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected, nil
}

// EntriesBetween returns buffered entries with start <= timestamp < end.
func (b *Buffer) EntriesBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]Entry, error) {
	entries, err := b.entries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, entry := range entries {
		if entry.Timestamp.Before(start) || !entry.Timestamp.Before(end) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Clear drops the buffered history for one owner.
func (b *Buffer) Clear(ctx context.Context, ownerID uuid.UUID) error {
	return b.client.Del(ctx, turnKey(ownerID)).Err()
}

func (b *Buffer) entries(ctx context.Context, ownerID uuid.UUID) ([]Entry, error) {
	key := turnKey(ownerID)
	vals, err := b.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var entry Entry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
