package myMiddleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (string, string, error) {
	if token != "good" {
		return "", "", fmt.Errorf("bad token")
	}
	return "u-1", "alice", nil
}

func newProtected() http.Handler {
	am := NewAuthMiddleware(fakeValidator{})
	return am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, username, ok := Identity(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(username))
	}))
}

func TestAuthMiddleware(t *testing.T) {
	h := newProtected()

	t.Run("should accept a bearer header", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		req.Equal(http.StatusOK, rec.Code)
		req.Equal("alice", rec.Body.String())
	})

	t.Run("should fall back to the query parameter", func(t *testing.T) {
		req := require.New(t)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
		req.Equal(http.StatusOK, rec.Code)
	})

	t.Run("should reject a missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject an invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=bad", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
