package user

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "fonnect/internal/errors"
	"fonnect/internal/respond"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
	log     *slog.Logger
}

func NewHandler(s *Service, log *slog.Logger) *Handler {
	return &Handler{Service: s, log: log}
}

// Routes registers the user endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err))
		return
	}

	res, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusCreated, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err))
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if users == nil {
		users = []Listing{}
	}
	respond.JSON(w, http.StatusOK, users)
}
