package listing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/events"
)

var tracer = otel.Tracer("go-market/listing")

type Store interface {
	List(ctx context.Context, q Query) ([]Listing, error)
	Get(ctx context.Context, id int64) (*Listing, error)
	Insert(ctx context.Context, l *Listing) error
	MarkSold(ctx context.Context, id int64) (*Listing, error)
	Delete(ctx context.Context, id int64) error
}

// Cache is optional read-through storage for single listings.
type Cache interface {
	Get(ctx context.Context, id int64) (*Listing, error)
	Set(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store  Store
	cache  Cache
	events events.Publisher
	log    *zap.Logger
}

func NewService(store Store, cache Cache, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, events: pub, log: log}
}

// Search fetches the candidate set from the store and applies f to it.
func (s *Service) Search(ctx context.Context, f Filter) ([]Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Search")
	defer span.End()

	if err := f.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.store.List(ctx, Query{OwnerID: f.OwnerID, ExcludeSold: !f.Mine()})
	if err != nil {
		s.log.Error("ListingService.Search: failed to load listings", zap.Error(err))
		return nil, err
	}

	result := Apply(candidates, f)
	span.SetAttributes(
		attribute.Int("listing.candidates", len(candidates)),
		attribute.Int("listing.matches", len(result)),
	)
	return result, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("listing.id", id))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("ListingService.Get: cache read failed", zap.Int64("listing_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	l, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, l); err != nil {
			s.log.Warn("ListingService.Get: cache write failed", zap.Int64("listing_id", id), zap.Error(err))
		}
	}
	return l, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Create")
	defer span.End()

	if ownerID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.log.Info("ListingService.Create: creating listing", zap.String("owner_id", ownerID), zap.String("title", req.Title))

	l := req.toListing(ownerID)
	if err := s.store.Insert(ctx, l); err != nil {
		s.log.Error("ListingService.Create: failed to insert listing", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.ListingCreated, l)
	return l, nil
}

// MarkSold flags the listing as sold. Only its owner may do this.
func (s *Service) MarkSold(ctx context.Context, userID string, id int64) (*Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.MarkSold")
	defer span.End()

	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	l, err := s.store.MarkSold(ctx, id)
	if err != nil {
		s.log.Error("ListingService.MarkSold: failed to update listing", zap.Int64("listing_id", id), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.ListingSold, l)
	return l, nil
}

// Delete removes the listing. Only its owner may do this.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "ListingService.Delete")
	defer span.End()

	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error("ListingService.Delete: failed to delete listing", zap.Int64("listing_id", id), zap.Error(err))
		return err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.ListingDeleted, map[string]any{"id": id, "owner_id": userID})
	return nil
}

func (s *Service) authorize(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return apperr.ErrUnauthenticated
	}
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID != userID {
		s.log.Warn("ListingService: forbidden",
			zap.Int64("listing_id", id), zap.String("owner_id", l.OwnerID), zap.String("user_id", userID))
		return apperr.Forbidden("listing %d belongs to another user", id)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("ListingService: cache invalidation failed", zap.Int64("listing_id", id), zap.Error(err))
	}
}

// publish is best effort; a lost event never fails the request.
func (s *Service) publish(ctx context.Context, subject string, data any) {
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.log.Warn("ListingService: failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
