package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"go-market/internal/render"
)

// Subjects published by the services.
const (
	ListingCreated  = "listing.created"
	ListingSold     = "listing.sold"
	ListingDeleted  = "listing.deleted"
	MessageCreated  = "message.created"
	FavoriteAdded   = "favorite.added"
	FavoriteRemoved = "favorite.removed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
}

// Envelope is the wire format of every event.
type Envelope struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEnvelope(subject string, data any) (Envelope, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: id.String(), Subject: subject, OccurredAt: time.Now().UTC(), Data: data}, nil
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("go-market"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := NewEnvelope(subject, data)
	if err != nil {
		return err
	}
	payload, err := render.Marshal(env)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Nop drops every event. Used when NATS_URL is empty.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
