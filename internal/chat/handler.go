package chat

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
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes registers the conversation endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateGroup)
	r.Post("/messages", h.SendMessage)
	r.Get("/groups", h.ListGroups)
	r.Get("/private-convos", h.ListPrivateConversations)
	r.Patch("/{conversationId}/join", h.JoinGroup)
	r.Get("/{conversationId}/messages", h.GetMessages)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	conv, err := h.service.CreateGroup(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, conv)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	conv, err := h.service.SendMessage(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, conv)
}

func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req JoinGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.ConversationID = chi.URLParam(r, "conversationId")
	conv, err := h.service.JoinGroup(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, conv)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conv, err := h.service.GetMessages(r.Context(), &GetMessagesRequest{
		ConversationID: chi.URLParam(r, "conversationId"),
		Username:       r.URL.Query().Get("username"),
	})
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, conv)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, groups)
}

func (h *Handler) ListPrivateConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.service.ListPrivateConversations(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, convs)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err))
		return false
	}
	return true
}
