package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// StreamTurns holds conversation-turn events awaiting memory extraction.
const StreamTurns = "COACHMEM_TURNS"

// SubjectTurnCompleted is published after each coaching turn finishes.
const SubjectTurnCompleted = "coach.turns.completed"

// TurnEvent triggers one asynchronous extraction unit for a finished turn.
// Extraction reads the recent user messages back out of the conversation
// buffer, so the event itself only carries the owner.
type TurnEvent struct {
	TurnID      string    `json:"turn_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CompletedAt time.Time `json:"completed_at"`
}
