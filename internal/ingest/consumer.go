package ingest

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/habitloop/coachmem/internal/conversation"
	"github.com/habitloop/coachmem/internal/memory"
	inats "github.com/habitloop/coachmem/internal/nats"
)

const extractionWindow = 3

// Consumer listens for completed coaching turns and runs memory
// extraction off the request path. A turn that fails extraction is nacked
// and redelivered; extraction itself never blocks the chat loop.
type Consumer struct {
	svc         *memory.Service
	buffer      *conversation.Buffer
	consumerMgr *inats.ConsumerManager
}

// NewConsumer creates a new turn event Consumer.
func NewConsumer(svc *memory.Service, buffer *conversation.Buffer, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		svc:         svc,
		buffer:      buffer,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamTurns, "memory-extractor", inats.SubjectTurnCompleted)
	if err != nil {
		return err
	}

	slog.Info("ingest consumer started", "consumer", "memory-extractor")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("ingest consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.TurnEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("ingest consumer: unmarshaling event", "error", err)
		_ = msg.Nak()
		return
	}

	userMessages, err := c.buffer.RecentUserMessages(ctx, event.OwnerID, extractionWindow)
	if err != nil {
		slog.Error("ingest consumer: loading conversation buffer", "error", err, "owner", event.OwnerID)
		_ = msg.Nak()
		return
	}
	if len(userMessages) == 0 {
		_ = msg.Ack()
		return
	}

	saved, err := c.svc.Ingest(ctx, event.OwnerID, userMessages)
	if err != nil {
		slog.Error("ingest consumer: extracting memory", "error", err, "owner", event.OwnerID)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("ingest consumer: processed turn",
		"turn_id", event.TurnID,
		"owner", event.OwnerID,
		"saved", saved,
	)
}
