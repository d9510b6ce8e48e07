package memory

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/habitloop/coachmem/internal/api"
	"github.com/habitloop/coachmem/internal/identity"
)

const (
	defaultFactLimit     = 6
	defaultInsightLimit  = 8
	defaultSummaryLimit  = 5
	defaultRelevantLimit = 8
)

// Handler handles memory HTTP endpoints.
type Handler struct {
	svc           *Service
	validate      *validator.Validate
	relevantLimit int
}

// NewHandler creates a new memory handler. relevantLimit is the default
// record cap for relevance retrieval when the caller does not pass one.
func NewHandler(svc *Service, relevantLimit int) *Handler {
	if relevantLimit <= 0 {
		relevantLimit = defaultRelevantLimit
	}
	return &Handler{
		svc:           svc,
		validate:      validator.New(),
		relevantLimit: relevantLimit,
	}
}

// contextResponse wraps a rendered memory context block.
type contextResponse struct {
	Context string `json:"context"`
}

// Context returns the standing memory profile for the authenticated owner.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())

	facts := queryInt(r, "facts", defaultFactLimit)
	insights := queryInt(r, "insights", defaultInsightLimit)
	summaries := queryInt(r, "summaries", defaultSummaryLimit)

	out, err := h.svc.ProfileContext(r.Context(), owner, facts, insights, summaries)
	if err != nil {
		slog.Error("composing profile context", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, contextResponse{Context: out})
}

// Relevant returns the query-ranked memory context for the current turn.
func (h *Handler) Relevant(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())

	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", h.relevantLimit)

	out, err := h.svc.RelevantContext(r.Context(), owner, query, limit)
	if err != nil {
		slog.Error("composing relevant context", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, contextResponse{Context: out})
}

// Remember persists a caller-provided memory.
func (h *Handler) Remember(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	saved, err := h.svc.Save(r.Context(), owner, Kind(req.Kind), req.Content)
	if err != nil {
		slog.Error("saving memory", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

// Hits reports which memory lines backed the most recent retrieval.
func (h *Handler) Hits(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())
	api.JSON(w, http.StatusOK, h.svc.LatestHits(owner))
}

// List returns the owner's recent active records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner := identity.OwnerFromContext(r.Context())

	records, err := h.svc.Recent(r.Context(), owner)
	if err != nil {
		slog.Error("listing memories", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if records == nil {
		records = []Record{}
	}

	api.JSON(w, http.StatusOK, records)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
