package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"go-market/internal/identity"
	"go-market/internal/render"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/conversations", h.Conversations)
	r.Get("/api/messages", h.Thread)
	r.Post("/api/messages", h.Send)
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	convs, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, convs)
}

func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	listingID, err := render.ParseID("listing_id", render.Query(r, "listing_id", "listingId"))
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	msgs, err := h.service.Thread(r.Context(), userID, listingID, render.Query(r, "counterparty_id", "counterpartyId"))
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, msgs)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	var req SendRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, h.log, err)
		return
	}

	m, err := h.service.Send(r.Context(), userID, req)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusCreated, m)
}
