package memory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/coachmem/internal/identity"
)

func doRequest(h http.HandlerFunc, method, target string, body string, owner uuid.UUID) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(identity.WithOwner(req.Context(), owner))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandler_Context(t *testing.T) {
	repo := &fakeRepository{}
	owner := uuid.New()
	seedRecord(repo, owner, KindLongTermFact, "I bike to the office daily.", 4, time.Hour)
	h := NewHandler(newTestService(repo, nil), 0)

	rec := doRequest(h.Context, "GET", "/api/v1/coach/memory/context", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Contains(t, data["context"], "I bike to the office daily. (P4)")
}

func TestHandler_Context_UnknownOwnerSentinel(t *testing.T) {
	h := NewHandler(newTestService(&fakeRepository{}, nil), 0)

	rec := doRequest(h.Context, "GET", "/api/v1/coach/memory/context", "", uuid.Nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "No saved long-term memory found for this user.", data["context"])
}

func TestHandler_Relevant(t *testing.T) {
	repo := &fakeRepository{}
	owner := uuid.New()
	seedRecord(repo, owner, KindUserInsight, "I struggle with sleep on weekends.", 3, time.Hour)
	svc := newTestService(repo, nil)
	h := NewHandler(svc, 0)

	rec := doRequest(h.Relevant, "GET", "/api/v1/coach/memory/relevant?q=sleep&limit=5", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Contains(t, data["context"], "LONG-TERM USER MEMORY (retrieved for current turn):")

	// Retrieval refreshed the hit snapshot.
	assert.Contains(t, svc.LatestHits(owner).Hits, "I struggle with sleep on weekends.")
}

func TestHandler_Remember(t *testing.T) {
	repo := &fakeRepository{}
	owner := uuid.New()
	h := NewHandler(newTestService(repo, nil), 0)

	body := `{"kind": "LONG_TERM_FACT", "content": "I always train before work starts."}`
	rec := doRequest(h.Remember, "POST", "/api/v1/coach/memory/remember", body, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, true, data["saved"])
	assert.Len(t, repo.records, 1)
}

func TestHandler_Remember_Validation(t *testing.T) {
	h := NewHandler(newTestService(&fakeRepository{}, nil), 0)
	owner := uuid.New()

	rec := doRequest(h.Remember, "POST", "/api/v1/coach/memory/remember", `{"kind": "BOGUS", "content": "x"}`, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h.Remember, "POST", "/api/v1/coach/memory/remember", `not json`, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Hits(t *testing.T) {
	repo := &fakeRepository{}
	owner := uuid.New()
	svc := newTestService(repo, nil)
	h := NewHandler(svc, 0)

	rec := doRequest(h.Hits, "GET", "/api/v1/coach/memory/hits", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Empty(t, data["hits"])
	assert.Nil(t, data["updated_at"])
}

func TestHandler_List(t *testing.T) {
	repo := &fakeRepository{}
	owner := uuid.New()
	seedRecord(repo, owner, KindLongTermFact, "I bike to the office daily.", 3, time.Hour)
	h := NewHandler(newTestService(repo, nil), 0)

	rec := doRequest(h.List, "GET", "/api/v1/coach/memory", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
}
