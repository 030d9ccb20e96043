package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/events"
	"go-market/internal/identity"
	"go-market/internal/listing"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListForUser(ctx context.Context, userID string) ([]UserMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UserMessage), args.Error(1)
}

func (m *MockStore) ListThread(ctx context.Context, listingID int64, userA, userB string) ([]Message, error) {
	args := m.Called(ctx, listingID, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, msg *Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockListings struct {
	mock.Mock
}

func (m *MockListings) Get(ctx context.Context, id int64) (*listing.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func newTestService() (*Service, *MockStore, *MockListings) {
	store := new(MockStore)
	listings := new(MockListings)
	return NewService(store, listings, events.Nop{}, zap.NewNop()), store, listings
}

func TestService_Conversations(t *testing.T) {
	svc, store, _ := newTestService()
	bike := "Bike"
	store.On("ListForUser", mock.Anything, "a").Return([]UserMessage{
		{Message: msg(3, 1, "b", "a", 3), ListingTitle: &bike},
		{Message: msg(2, 9, "a", "c", 2)},
		{Message: msg(1, 1, "a", "b", 1), ListingTitle: &bike},
	}, nil)

	convs, err := svc.Conversations(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "Bike", convs[0].ListingTitle)
	assert.Equal(t, "Listing 9", convs[1].ListingTitle)
}

func TestService_Send(t *testing.T) {
	t.Run("defaults recipient to the listing owner", func(t *testing.T) {
		svc, store, listings := newTestService()
		listings.On("Get", mock.Anything, int64(1)).Return(&listing.Listing{ID: 1, OwnerID: "seller"}, nil)
		store.On("Insert", mock.Anything, mock.AnythingOfType("*chat.Message")).Return(nil)

		m, err := svc.Send(context.Background(), "buyer", SendRequest{ListingID: 1, Content: "  still available? "})
		require.NoError(t, err)
		assert.Equal(t, "seller", m.RecipientID)
		assert.Equal(t, "still available?", m.Content)
	})

	t.Run("explicit self message never reaches the gateway", func(t *testing.T) {
		svc, store, listings := newTestService()

		_, err := svc.Send(context.Background(), "x", SendRequest{ListingID: 1, RecipientID: "x", Content: "hi"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		listings.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("owner messaging own listing without recipient", func(t *testing.T) {
		svc, store, listings := newTestService()
		listings.On("Get", mock.Anything, int64(1)).Return(&listing.Listing{ID: 1, OwnerID: "seller"}, nil)

		_, err := svc.Send(context.Background(), "seller", SendRequest{ListingID: 1, Content: "hi"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("blank content", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Send(context.Background(), "buyer", SendRequest{ListingID: 1, Content: "   "})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("content too long", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Send(context.Background(), "buyer", SendRequest{ListingID: 1, Content: strings.Repeat("x", maxContentLength+1)})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing listing", func(t *testing.T) {
		svc, _, listings := newTestService()
		listings.On("Get", mock.Anything, int64(1)).Return(nil, apperr.NotFound("listing 1"))

		_, err := svc.Send(context.Background(), "buyer", SendRequest{ListingID: 1, Content: "hi"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_Thread(t *testing.T) {
	t.Run("counterparty defaults to owner", func(t *testing.T) {
		svc, store, listings := newTestService()
		listings.On("Get", mock.Anything, int64(1)).Return(&listing.Listing{ID: 1, OwnerID: "seller"}, nil)
		store.On("ListThread", mock.Anything, int64(1), "buyer", "seller").Return([]Message{msg(1, 1, "buyer", "seller", 0)}, nil)

		msgs, err := svc.Thread(context.Background(), "buyer", 1, "")
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})

	t.Run("owner must name the counterparty", func(t *testing.T) {
		svc, _, listings := newTestService()
		listings.On("Get", mock.Anything, int64(1)).Return(&listing.Listing{ID: 1, OwnerID: "seller"}, nil)

		_, err := svc.Thread(context.Background(), "seller", 1, "")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func withUser(userID string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), identity.Identity{UserID: userID})))
	})
}

func TestHandler(t *testing.T) {
	svc, store, listings := newTestService()
	listings.On("Get", mock.Anything, int64(1)).Return(&listing.Listing{ID: 1, OwnerID: "seller"}, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	store.On("ListThread", mock.Anything, int64(1), "buyer", "seller").Return([]Message{}, nil)
	store.On("ListForUser", mock.Anything, "buyer").Return([]UserMessage{}, nil)

	r := chi.NewRouter()
	NewHandler(svc, zap.NewNop()).Routes(r)
	h := withUser("buyer", r)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"listing_id":1,"content":"hi"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recipient_id":"seller"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages?listingId=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
