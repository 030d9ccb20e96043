package listing

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-market/internal/apperr"
	"go-market/internal/geo"
	"go-market/internal/identity"
	"go-market/internal/render"
)

// FavoriteChecker resolves whether a user has favorited a listing.
type FavoriteChecker interface {
	IsFavorited(ctx context.Context, userID string, listingID int64) (bool, error)
}

type Handler struct {
	service   *Service
	favorites FavoriteChecker
	log       *zap.Logger
}

func NewHandler(s *Service, favorites FavoriteChecker, log *zap.Logger) *Handler {
	return &Handler{service: s, favorites: favorites, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/listings", h.List)
	r.Post("/api/listings", h.Create)
	r.Get("/api/listings/{id}", h.Get)
	r.Put("/api/listings/{id}", h.MarkSold)
	r.Delete("/api/listings/{id}", h.Delete)
}

// List serves discovery. owner_id selects the caller's own listings, sold
// ones included, and must name the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	f, err := filterFromRequest(r)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	if f.Mine() && f.OwnerID != userID {
		render.Error(w, h.log, apperr.Forbidden("cannot list another user's listings"))
		return
	}

	listings, err := h.service.Search(r.Context(), f)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, listings)
}

// Get loads the listing and the caller's favorite state concurrently.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	var detail Detail
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		l, err := h.service.Get(ctx, id)
		detail.Listing = l
		return err
	})
	g.Go(func() error {
		fav, err := h.favorites.IsFavorited(ctx, userID, id)
		detail.Favorited = fav
		return err
	})
	if err := g.Wait(); err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	var req CreateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, h.log, err)
		return
	}

	l, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusCreated, l)
}

func (h *Handler) MarkSold(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	l, err := h.service.MarkSold(r.Context(), userID, id)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	render.JSON(w, http.StatusOK, l)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}
	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		render.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func filterFromRequest(r *http.Request) (Filter, error) {
	f := Filter{
		Text:    render.Query(r, "text", "q"),
		OwnerID: render.Query(r, "owner_id", "ownerId"),
	}

	var err error
	if f.MinPrice, err = floatQuery(r, "min_price", "minPrice"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = floatQuery(r, "max_price", "maxPrice"); err != nil {
		return Filter{}, err
	}
	if f.RadiusMiles, err = floatQuery(r, "radius"); err != nil {
		return Filter{}, err
	}

	lat, err := floatQuery(r, "lat")
	if err != nil {
		return Filter{}, err
	}
	lng, err := floatQuery(r, "lng")
	if err != nil {
		return Filter{}, err
	}
	if (lat == nil) != (lng == nil) {
		return Filter{}, apperr.Validation("lat and lng must be given together")
	}
	if lat != nil {
		f.Origin = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return f, nil
}

func floatQuery(r *http.Request, names ...string) (*float64, error) {
	raw := render.Query(r, names...)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.Validation("invalid %s %q", names[0], raw)
	}
	return &v, nil
}
