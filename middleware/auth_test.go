package middleware

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func captureSession(t *testing.T, h func(http.Handler) http.Handler, authHeader string) session.Session {
	t.Helper()
	var got session.Session
	handler := h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestAuth_VerifiedToken(t *testing.T) {
	tok := signToken(t, "secret", jwt.MapClaims{"uid": "42", "exp": time.Now().Add(time.Hour).Unix()})

	s := captureSession(t, Auth("secret"), "Bearer "+tok)
	uid, ok := s.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, tok, s.BearerToken())
}

func TestAuth_WrongSecretIsAnonymous(t *testing.T) {
	tok := signToken(t, "other", jwt.MapClaims{"uid": "42"})

	s := captureSession(t, Auth("secret"), "Bearer "+tok)
	_, ok := s.UserID()
	assert.False(t, ok)
	assert.Empty(t, s.BearerToken())
}

func TestAuth_UnverifiedModeReadsClaims(t *testing.T) {
	tok := signToken(t, "whatever", jwt.MapClaims{nameIdentifierClaim: "9"})

	s := captureSession(t, Auth(""), "bearer "+tok)
	uid, ok := s.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(9), uid)
}

func TestAuth_UnverifiedModeRejectsExpired(t *testing.T) {
	tok := signToken(t, "whatever", jwt.MapClaims{"sub": "9", "exp": time.Now().Add(-time.Minute).Unix()})

	s := captureSession(t, Auth(""), "Bearer "+tok)
	_, ok := s.UserID()
	assert.False(t, ok)
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer not-a-jwt"} {
		s := captureSession(t, Auth(""), header)
		_, ok := s.UserID()
		assert.False(t, ok, header)
	}
}

func TestAuth_AnonymousSessionKeepsClientAddress(t *testing.T) {
	var got session.Session
	handler := Auth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:54321"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, ok := got.UserID()
	assert.False(t, ok)
	assert.Equal(t, "10.1.2.3", got.Client())

	req.RemoteAddr = "10.1.2.3:60000"
	var again session.Session
	Auth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		again = session.FromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, session.SameUser(got, again))
}

func TestUserIDFromClaims(t *testing.T) {
	t.Run("string uid", func(t *testing.T) {
		id, ok := UserIDFromClaims(jwt.MapClaims{"uid": "15"})
		assert.True(t, ok)
		assert.Equal(t, int64(15), id)
	})

	t.Run("numeric sub", func(t *testing.T) {
		id, ok := UserIDFromClaims(jwt.MapClaims{"sub": float64(3)})
		assert.True(t, ok)
		assert.Equal(t, int64(3), id)
	})

	t.Run("falls through non-numeric claims", func(t *testing.T) {
		id, ok := UserIDFromClaims(jwt.MapClaims{"sub": "alice@example.com", "nameid": "8"})
		assert.True(t, ok)
		assert.Equal(t, int64(8), id)
	})

	t.Run("numeric id at the int64 boundary", func(t *testing.T) {
		_, ok := UserIDFromClaims(jwt.MapClaims{"uid": float64(math.MaxInt64)})
		assert.False(t, ok)

		id, ok := UserIDFromClaims(jwt.MapClaims{"uid": float64(1 << 53)})
		assert.True(t, ok)
		assert.Equal(t, int64(1<<53), id)
	})

	t.Run("no id", func(t *testing.T) {
		_, ok := UserIDFromClaims(jwt.MapClaims{"sub": "alice", "uid": float64(-1)})
		assert.False(t, ok)
	})
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth.unauthorized")

	req = req.WithContext(SetSessionForTest(req.Context(), 1, "tok"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
