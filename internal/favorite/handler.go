package favorite

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"go-market/internal/apperr"
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
	r.Get("/api/favorites", h.List)
	r.Post("/api/favorites", h.Add)
	r.Delete("/api/favorites", h.Remove)
	r.Post("/api/favorites/toggle", h.Toggle)
	r.Get("/api/favorites/{listing_id}", h.Status)
}

// List returns the caller's favorited listings. A user_id parameter, if
// given, must name the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	if requested := render.Query(r, "user_id", "userId"); requested != "" && requested != userID {
		render.Error(w, h.log, apperr.Forbidden("cannot read another user's favorites"))
		return
	}

	listings, err := h.service.List(r.Context(), userID)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, listings)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	listingID, err := render.IDParam(r, "listing_id")
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	fav, err := h.service.IsFavorited(r.Context(), userID, listingID)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, State{ListingID: listingID, Favorited: fav})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Add(r.Context(), userID, listingID); err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, State{ListingID: listingID, Favorited: true})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, listingID); err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, State{ListingID: listingID, Favorited: false})
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := h.target(w, r)
	if !ok {
		return
	}
	fav, err := h.service.Toggle(r.Context(), userID, listingID)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, State{ListingID: listingID, Favorited: fav})
}

// target reads the caller and the listing id from the body, or from the
// listing_id query parameter when there is no body.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return "", 0, false
	}

	var listingID int64
	if raw := render.Query(r, "listing_id", "listingId"); raw != "" {
		listingID, err = render.ParseID("listing_id", raw)
	} else {
		var req Request
		if err = render.Decode(r, &req); err == nil && req.ListingID <= 0 {
			err = apperr.Validation("listing_id is required")
		}
		listingID = req.ListingID
	}
	if err != nil {
		render.Error(w, h.log, err)
		return "", 0, false
	}
	return userID, listingID, true
}
