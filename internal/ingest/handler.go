package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/habitloop/coachmem/internal/api"
	"github.com/habitloop/coachmem/internal/conversation"
	"github.com/habitloop/coachmem/internal/identity"
	inats "github.com/habitloop/coachmem/internal/nats"
)

// TurnRequest carries one completed coaching exchange.
type TurnRequest struct {
	UserMessage      string `json:"user_message" validate:"required,max=8000"`
	AssistantMessage string `json:"assistant_message" validate:"required,max=16000"`
}

// Handler accepts completed turns, appends them to the conversation
// buffer and emits a turn event so extraction runs asynchronously.
type Handler struct {
	buffer    *conversation.Buffer
	publisher *inats.Publisher
	validate  *validator.Validate
}

// NewHandler creates a new turn intake handler.
func NewHandler(buffer *conversation.Buffer, publisher *inats.Publisher) *Handler {
	return &Handler{
		buffer:    buffer,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Submit records a completed turn. The turn is accepted as long as the
// buffer write succeeds; a failed event publish is logged and the turn is
// picked up by the next successful one.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())
	if owner == uuid.Nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if err := h.buffer.AppendTurn(r.Context(), owner, req.UserMessage, req.AssistantMessage); err != nil {
		slog.Error("appending turn to buffer", "error", err, "owner", owner)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	event := inats.TurnEvent{
		TurnID:      uuid.NewString(),
		OwnerID:     owner,
		CompletedAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishTurnCompleted(r.Context(), event); err != nil {
		slog.Warn("publishing turn event", "error", err, "owner", owner)
	}

	api.JSONMessage(w, http.StatusAccepted, "turn recorded")
}
