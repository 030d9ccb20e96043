package favorite

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/events"
	"go-market/internal/listing"
)

var tracer = otel.Tracer("go-market/favorite")

type Store interface {
	Exists(ctx context.Context, userID string, listingID int64) (bool, error)
	Insert(ctx context.Context, userID string, listingID int64) error
	Delete(ctx context.Context, userID string, listingID int64) error
	ListListings(ctx context.Context, userID string) ([]listing.Listing, error)
}

type Service struct {
	store  Store
	events events.Publisher
	log    *zap.Logger
}

func NewService(store Store, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, events: pub, log: log}
}

func (s *Service) IsFavorited(ctx context.Context, userID string, listingID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.IsFavorited")
	defer span.End()

	if userID == "" {
		return false, apperr.ErrUnauthenticated
	}
	return s.store.Exists(ctx, userID, listingID)
}

// Toggle flips the favorite state and returns the new one. The check and the
// write are not atomic; a lost race leaves the pair in the requested state.
func (s *Service) Toggle(ctx context.Context, userID string, listingID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.Toggle")
	defer span.End()

	current, err := s.IsFavorited(ctx, userID, listingID)
	if err != nil {
		return false, err
	}

	if current {
		return false, s.Remove(ctx, userID, listingID)
	}
	return true, s.Add(ctx, userID, listingID)
}

// Add favorites the listing. Adding an existing favorite is not an error.
func (s *Service) Add(ctx context.Context, userID string, listingID int64) error {
	if userID == "" {
		return apperr.ErrUnauthenticated
	}

	err := s.store.Insert(ctx, userID, listingID)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		s.log.Debug("FavoriteService.Add: already favorited", zap.String("user_id", userID), zap.Int64("listing_id", listingID))
		return nil
	case err != nil:
		s.log.Error("FavoriteService.Add: failed to insert favorite",
			zap.String("user_id", userID), zap.Int64("listing_id", listingID), zap.Error(err))
		return err
	}

	s.publish(ctx, events.FavoriteAdded, Favorite{UserID: userID, ListingID: listingID})
	return nil
}

// Remove unfavorites the listing. Removing a missing favorite is not an error.
func (s *Service) Remove(ctx context.Context, userID string, listingID int64) error {
	if userID == "" {
		return apperr.ErrUnauthenticated
	}

	err := s.store.Delete(ctx, userID, listingID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.log.Debug("FavoriteService.Remove: not favorited", zap.String("user_id", userID), zap.Int64("listing_id", listingID))
		return nil
	case err != nil:
		s.log.Error("FavoriteService.Remove: failed to delete favorite",
			zap.String("user_id", userID), zap.Int64("listing_id", listingID), zap.Error(err))
		return err
	}

	s.publish(ctx, events.FavoriteRemoved, Favorite{UserID: userID, ListingID: listingID})
	return nil
}

func (s *Service) List(ctx context.Context, userID string) ([]listing.Listing, error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.List")
	defer span.End()

	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	return s.store.ListListings(ctx, userID)
}

func (s *Service) publish(ctx context.Context, subject string, data any) {
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.log.Warn("FavoriteService: failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
