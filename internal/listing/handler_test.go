package listing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-market/internal/events"
	"go-market/internal/geo"
	"go-market/internal/identity"
)

type stubFavorites struct {
	favorited bool
	err       error
}

func (s stubFavorites) IsFavorited(context.Context, string, int64) (bool, error) {
	return s.favorited, s.err
}

func newTestRouter(svc *Service, favs FavoriteChecker, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(identity.WithContext(r.Context(), identity.Identity{UserID: userID}))
			}
			next.ServeHTTP(w, r)
		})
	})
	NewHandler(svc, favs, zap.NewNop()).Routes(r)
	return r
}

func TestFilterFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/listings?text=bike&minPrice=10&max_price=20&lat=40&lng=-74&radius=5&ownerId=u1", nil)

	f, err := filterFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "bike", f.Text)
	assert.Equal(t, 10.0, *f.MinPrice)
	assert.Equal(t, 20.0, *f.MaxPrice)
	assert.Equal(t, 5.0, *f.RadiusMiles)
	assert.Equal(t, &geo.Point{Lat: 40, Lng: -74}, f.Origin)
	assert.Equal(t, "u1", f.OwnerID)

	for _, q := range []string{"?lat=40", "?min_price=abc", "?radius=NaN"} {
		_, err := filterFromRequest(httptest.NewRequest(http.MethodGet, "/api/listings"+q, nil))
		assert.Error(t, err, q)
	}
}

func TestHandler_List(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.On("List", mock.Anything, Query{ExcludeSold: true}).Return([]Listing{}, nil)

	rec := httptest.NewRecorder()
	newTestRouter(svc, stubFavorites{}, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_ListMineIsCallerOnly(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.On("List", mock.Anything, Query{OwnerID: "u1"}).Return([]Listing{newListing(1, "u1", 5, true)}, nil)
	router := newTestRouter(svc, stubFavorites{}, "u1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings?owner_id=u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sold":true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings?ownerId=u2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertNotCalled(t, "List", mock.Anything, Query{OwnerID: "u2"})

	rec = httptest.NewRecorder()
	newTestRouter(svc, stubFavorites{}, "").
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	t.Run("includes favorite state", func(t *testing.T) {
		svc, _, cache, _ := newTestService()
		cache.On("Get", mock.Anything, int64(3)).Return(&Listing{ID: 3, OwnerID: "a", Title: "Lamp"}, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{favorited: true}, "u1").
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings/3", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"favorited":true`)
		assert.Contains(t, rec.Body.String(), `"title":"Lamp"`)
	})

	t.Run("favorite lookup failure", func(t *testing.T) {
		svc, _, cache, _ := newTestService()
		cache.On("Get", mock.Anything, int64(3)).Return(&Listing{ID: 3}, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{err: errors.New("boom")}, "u1").
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings/3", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("bad id", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{}, "u1").
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings/abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, store, _, pub := newTestService()
		store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		pub.On("Publish", mock.Anything, events.ListingCreated, mock.Anything).Return(nil)

		body := `{"title":"Bike","price":120,"latitude":40,"longitude":-74}`
		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{}, "u1").
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"owner_id":"u1"`)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{}, "").
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		rec := httptest.NewRecorder()
		newTestRouter(svc, stubFavorites{}, "u1").
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(`{"title":"Bike"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_MarkSoldAndDelete(t *testing.T) {
	svc, store, cache, pub := newTestService()
	store.On("Get", mock.Anything, int64(9)).Return(&Listing{ID: 9, OwnerID: "a"}, nil)
	store.On("MarkSold", mock.Anything, int64(9)).Return(&Listing{ID: 9, OwnerID: "a", Sold: true}, nil)
	store.On("Delete", mock.Anything, int64(9)).Return(nil)
	cache.On("Delete", mock.Anything, int64(9)).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	owner := newTestRouter(svc, stubFavorites{}, "a")
	other := newTestRouter(svc, stubFavorites{}, "b")

	rec := httptest.NewRecorder()
	other.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/listings/9", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	owner.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/listings/9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sold":true`)

	rec = httptest.NewRecorder()
	owner.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/listings/9", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
