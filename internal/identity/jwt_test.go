package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "identity-secret-32-chars-long!!!"

func signToken(t *testing.T, secret, subject string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier(testSecret)

	t.Run("valid token", func(t *testing.T) {
		subject, err := v.Verify(signToken(t, testSecret, "user@example.com", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", subject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signToken(t, "some-other-secret-32-chars-long!", "user@example.com", time.Hour))
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, "user@example.com", -time.Minute))
		assert.Error(t, err)
	})

	t.Run("empty subject", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, "", time.Hour))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.Error(t, err)
	})
}

type staticResolver struct {
	known map[string]uuid.UUID
}

func (s *staticResolver) Resolve(_ context.Context, externalKey string) (uuid.UUID, error) {
	return s.known[externalKey], nil
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret)
	ownerID := uuid.New()
	resolver := &staticResolver{known: map[string]uuid.UUID{"user@example.com": ownerID}}

	var captured uuid.UUID
	handler := Middleware(v, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("known subject resolves", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user@example.com", time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ownerID, captured)
	})

	t.Run("unknown subject passes with nil owner", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "stranger@example.com", time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uuid.Nil, captured)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
