package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/events"
	"go-market/internal/listing"
)

var tracer = otel.Tracer("go-market/chat")

type Store interface {
	ListForUser(ctx context.Context, userID string) ([]UserMessage, error)
	ListThread(ctx context.Context, listingID int64, userA, userB string) ([]Message, error)
	Insert(ctx context.Context, m *Message) error
}

// ListingReader resolves the listing a message is about.
type ListingReader interface {
	Get(ctx context.Context, id int64) (*listing.Listing, error)
}

type Service struct {
	store    Store
	listings ListingReader
	events   events.Publisher
	log      *zap.Logger
}

func NewService(store Store, listings ListingReader, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, listings: listings, events: pub, log: log}
}

// Conversations lists the caller's conversations, newest first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Conversations")
	defer span.End()

	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}

	rows, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		s.log.Error("ChatService.Conversations: failed to load messages", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	titles := make(map[int64]string)
	msgs := make([]Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.Message)
		if row.ListingTitle != nil {
			titles[row.ListingID] = *row.ListingTitle
		}
	}

	convs := Aggregate(userID, msgs, func(id int64) (string, bool) {
		title, ok := titles[id]
		return title, ok
	})
	span.SetAttributes(attribute.Int("chat.messages", len(msgs)), attribute.Int("chat.conversations", len(convs)))
	return convs, nil
}

// Thread returns the caller's message history with counterpartyID about one
// listing, oldest first. An empty counterpartyID means the listing's owner.
func (s *Service) Thread(ctx context.Context, userID string, listingID int64, counterpartyID string) ([]Message, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Thread")
	defer span.End()

	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}

	if counterpartyID == "" {
		l, err := s.listings.Get(ctx, listingID)
		if err != nil {
			return nil, err
		}
		counterpartyID = l.OwnerID
	}
	if counterpartyID == userID {
		return nil, apperr.Validation("counterparty_id is required for your own listing")
	}

	return s.store.ListThread(ctx, listingID, userID, counterpartyID)
}

// Send stores a message from senderID. A missing recipient defaults to the
// listing's owner.
func (s *Service) Send(ctx context.Context, senderID string, req SendRequest) (*Message, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Send")
	defer span.End()

	if senderID == "" {
		return nil, apperr.ErrUnauthenticated
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, apperr.Validation("content must be at most %d characters", maxContentLength)
	}
	if req.ListingID <= 0 {
		return nil, apperr.Validation("listing_id is required")
	}
	if req.RecipientID == senderID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}

	l, err := s.listings.Get(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	recipient := req.RecipientID
	if recipient == "" {
		recipient = l.OwnerID
	}
	if recipient == senderID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}

	m := &Message{
		ListingID:   req.ListingID,
		SenderID:    senderID,
		RecipientID: recipient,
		Content:     content,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		s.log.Error("ChatService.Send: failed to insert message",
			zap.Int64("listing_id", req.ListingID), zap.String("sender_id", senderID), zap.Error(err))
		return nil, err
	}

	if err := s.events.Publish(ctx, events.MessageCreated, m); err != nil {
		s.log.Warn("ChatService.Send: failed to publish event", zap.Int64("message_id", m.ID), zap.Error(err))
	}
	return m, nil
}
