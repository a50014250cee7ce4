package user

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	svc, _ := newTestService(t, fakePresence{})
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/users", h.Routes)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/users", "")
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`[]`, rec.Body.String())

	rec = do(r, http.MethodPost, "/users/register", `{"username":"alice","fullname":"Alice","password":"secret1"}`)
	req.Equal(http.StatusCreated, rec.Code)
	var reg RegisterResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &reg))
	req.NotEmpty(reg.Token)

	rec = do(r, http.MethodPost, "/users/register", `{"username":"alice","fullname":"Alice","password":"secret1"}`)
	req.Equal(http.StatusBadRequest, rec.Code)
	req.JSONEq(`{"error":"username already exists"}`, rec.Body.String())

	rec = do(r, http.MethodPost, "/users/register", `{not json`)
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/users/login", `{"username":"alice","password":"nope"}`)
	req.Equal(http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/users/login", `{"username":"alice","password":"secret1"}`)
	req.Equal(http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/users", "")
	req.Equal(http.StatusOK, rec.Code)
	var users []Listing
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &users))
	req.Len(users, 1)
	req.Equal("alice", users[0].Username)
}
